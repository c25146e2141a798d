package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/experience-engine/server/internal/workflow/gateway"
	"github.com/experience-engine/server/internal/workflow/graph/prompts"
	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

// evalFallback is the structural fallback when the evaluation response is
// unusable: all-zero scores and a mandatory human validation flag.
func evalFallback(reason string) *model.Evaluation {
	return &model.Evaluation{
		StructureCompliance: "Fail",
		ValidationRequired:  true,
		ValidationReason:    reason,
	}
}

// NewEvalNode creates the terminal evaluation node. It scores the combined
// experience against the original input, reusing the uploaded file handle
// when one is cached in state, and assembles the run output. Its result is
// never consumed by a later node.
func NewEvalNode(gw gateway.Invoker, repairAttempts int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, exp *model.Experience) (*model.RunOutput, error) {
		var sessionID, rawInput string
		var file *genai.File
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			sessionID = s.SessionID
			file = s.UploadedFile
			switch {
			case s.RawText != "":
				rawInput = s.RawText
			case s.URL != "":
				rawInput = "Remote resource: " + s.URL
			default:
				rawInput = "Uploaded file: " + s.FilePath
			}
			return nil
		}); err != nil {
			return nil, err
		}

		evaluation := evaluateExperience(ctx, gw, exp, rawInput, file, sessionID, repairAttempts)

		var out *model.RunOutput
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			s.Evaluation = evaluation
			if meter := model.MeterFrom(ctx); meter != nil {
				s.TotalCostUSD = meter.Total()
			}
			out = &model.RunOutput{
				SessionID:            s.SessionID,
				Experience:           s.Experience,
				Evaluation:           s.Evaluation,
				ClassificationType:   s.ClassificationType,
				ClassificationReason: s.ClassificationReason,
			}
			return nil
		}); err != nil {
			return nil, err
		}

		logx.Debug().
			Str("session_id", sessionID).
			Str("node", NodeEval).
			Int("overall_score", evaluation.OverallScore).
			Bool("validation_required", evaluation.ValidationRequired).
			Msg("Evaluation complete")

		return out, nil
	})
}

func evaluateExperience(ctx context.Context, gw gateway.Invoker, exp *model.Experience, rawInput string, file *genai.File, sessionID string, repairAttempts int) *model.Evaluation {
	expJSON, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return evalFallback(fmt.Sprintf("evaluation failed: %v", err))
	}

	prompt, err := prompts.RenderEval(ctx, rawInput, string(expJSON))
	if err != nil {
		return evalFallback(fmt.Sprintf("evaluation failed: %v", err))
	}

	var content string
	if file != nil {
		// Compare against the original file itself; the handle was uploaded
		// once by extraction and is read-only here.
		content, err = gw.GenerateWithFile(ctx, file, prompt, sessionID)
	} else {
		var resp *schema.Message
		resp, err = gw.Invoke(ctx, []*schema.Message{schema.UserMessage(prompt)}, sessionID)
		if err == nil {
			content = resp.Content
		}
	}
	if err != nil {
		logx.Warn().Str("session_id", sessionID).Err(err).Msg("Evaluation call failed")
		return evalFallback("evaluation failed due to error")
	}

	evaluation, err := gateway.CoerceInto[model.Evaluation](ctx, gw, content, sessionID, repairAttempts)
	if err != nil {
		logx.Warn().Str("session_id", sessionID).Err(err).Msg("Evaluation response unusable")
		return evalFallback("evaluation failed due to error")
	}
	applyReviewThresholds(evaluation)
	return evaluation
}

// applyReviewThresholds derives the human review flag from the scores. The
// model's own flag is kept only when the thresholds do not already force it.
func applyReviewThresholds(ev *model.Evaluation) {
	switch {
	case ev.OverallScore < 80:
		ev.ValidationRequired = true
		if ev.ValidationReason == "" {
			ev.ValidationReason = "overall score below threshold"
		}
	case ev.Hallucination > 0.15:
		ev.ValidationRequired = true
		if ev.ValidationReason == "" {
			ev.ValidationReason = "hallucination score above threshold"
		}
	case ev.StructureCompliance == "Fail":
		ev.ValidationRequired = true
		if ev.ValidationReason == "" {
			ev.ValidationReason = "structure compliance failed"
		}
	}
}
