package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/experience-engine/server/internal/workflow/gateway"
	"github.com/experience-engine/server/internal/workflow/graph/prompts"
	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

const classificationFallbackReason = "unable to parse classification response"

// classifyText runs the MANAGED/UNMANAGED call and normalizes the result.
// Classification failure never aborts the workflow: anything unusable
// defaults to UNMANAGED with a generic reason.
func classifyText(ctx context.Context, gw gateway.Invoker, extractedText, sessionID string, repairAttempts int) (model.ClassificationType, string) {
	prompt, err := prompts.RenderClassification(ctx, extractedText)
	if err != nil {
		logx.Error().Str("session_id", sessionID).Err(err).Msg("Render classification prompt failed")
		return model.ClassificationUnmanaged, classificationFallbackReason
	}

	result, err := gateway.StructuredInvoke[model.Classification](ctx, gw,
		[]*schema.Message{schema.UserMessage(prompt)}, sessionID, repairAttempts)
	if err != nil {
		logx.Warn().Str("session_id", sessionID).Err(err).Msg("Classification response unusable, defaulting to UNMANAGED")
		return model.ClassificationUnmanaged, classificationFallbackReason
	}

	ctype := model.ClassificationUnmanaged
	if strings.EqualFold(strings.TrimSpace(result.ClassificationType), string(model.ClassificationManaged)) {
		ctype = model.ClassificationManaged
	}
	reason := strings.TrimSpace(result.Reason)
	if reason == "" {
		reason = classificationFallbackReason
	}
	return ctype, reason
}

// NewClassificationNode creates the classification node. The extracted text
// passes through unchanged so both fan-out branches receive it.
func NewClassificationNode(gw gateway.Invoker, repairAttempts int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, extractedText string) (string, error) {
		var sessionID string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			sessionID = s.SessionID
			return nil
		}); err != nil {
			return "", err
		}

		ctype, reason := classifyText(ctx, gw, extractedText, sessionID, repairAttempts)

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			s.ClassificationType = ctype
			s.ClassificationReason = reason
			return nil
		}); err != nil {
			return "", err
		}

		logx.Debug().
			Str("session_id", sessionID).
			Str("node", NodeClassification).
			Str("type", string(ctype)).
			Msg("Classification complete")

		return extractedText, nil
	})
}
