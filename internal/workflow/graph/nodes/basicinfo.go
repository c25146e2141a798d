package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/experience-engine/server/internal/workflow/gateway"
	"github.com/experience-engine/server/internal/workflow/graph/prompts"
	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

// BasicInfoDeps carries the two gateways of the basic_info branch: the plain
// structured-output gateway and the tool-augmented tagging gateway.
type BasicInfoDeps struct {
	Gateway        gateway.Invoker
	Tagger         gateway.ToolInvoker
	RepairAttempts int
}

// NewBasicInfoNode creates the basic_info branch node. It makes two
// sequential model calls over the same extracted text: the structured
// basic-info extraction, then the taxonomy tagging sub-flow. Either result
// may be absent from the returned partial update; branch failure degrades to
// omission, never to a graph-wide abort.
func NewBasicInfoNode(deps BasicInfoDeps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, extractedText string) (map[string]any, error) {
		var sessionID string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			sessionID = s.SessionID
			return nil
		}); err != nil {
			return nil, err
		}

		update := map[string]any{}

		if info, err := extractBasicInfo(ctx, deps, extractedText, sessionID); err != nil {
			logx.Warn().Str("session_id", sessionID).Err(err).Msg("Basic info extraction failed; omitting")
		} else {
			update[model.KeyBasicInfo] = info
		}

		if tags, err := extractTags(ctx, deps, extractedText, sessionID); err != nil {
			logx.Warn().Str("session_id", sessionID).Err(err).Msg("Tag extraction failed; omitting")
		} else {
			update[model.KeyTagsInfo] = tags
		}

		return update, nil
	})
}

// NewBasicInfoPostHandler persists the branch's partial update into state.
// The branch writes only its own keys; the plan branch never touches them.
func NewBasicInfoPostHandler() func(context.Context, map[string]any, *model.WorkflowState) (map[string]any, error) {
	return func(ctx context.Context, out map[string]any, s *model.WorkflowState) (map[string]any, error) {
		if info, ok := out[model.KeyBasicInfo].(*model.BasicInfo); ok {
			s.BasicInfo = info
		}
		if tags, ok := out[model.KeyTagsInfo].(*model.TagsInfo); ok {
			s.TagsInfo = tags
		}
		return out, nil
	}
}

func extractBasicInfo(ctx context.Context, deps BasicInfoDeps, extractedText, sessionID string) (*model.BasicInfo, error) {
	prompt, err := prompts.RenderBasicInfo(ctx, extractedText)
	if err != nil {
		return nil, fmt.Errorf("render basic info prompt: %w", err)
	}
	return gateway.StructuredInvoke[model.BasicInfo](ctx, deps.Gateway,
		[]*schema.Message{schema.UserMessage(prompt)}, sessionID, deps.RepairAttempts)
}

// extractTags runs the taxonomy tagging sub-flow: a tool-augmented turn that
// must fetch the taxonomy before answering, a single re-ask when the turn
// ends with empty content (the model stopped after its tool call), then a
// structured conversion of the final answer into the tag schema.
func extractTags(ctx context.Context, deps BasicInfoDeps, extractedText, sessionID string) (*model.TagsInfo, error) {
	prompt, err := prompts.RenderTags(ctx, extractedText)
	if err != nil {
		return nil, fmt.Errorf("render tags prompt: %w", err)
	}
	msgs := []*schema.Message{schema.UserMessage(prompt)}

	resp, err := deps.Tagger.InvokeWithTools(ctx, msgs, sessionID)
	if err != nil {
		return nil, err
	}

	finalContent := ""
	if resp != nil {
		finalContent = strings.TrimSpace(resp.Content)
	}
	if finalContent == "" {
		logx.Debug().Str("session_id", sessionID).Msg("Tagging turn ended without content; re-asking once")
		resp, err = deps.Tagger.InvokeWithTools(ctx, msgs, sessionID)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			finalContent = strings.TrimSpace(resp.Content)
		}
	}

	convert := "Convert this to structured format: " + finalContent
	return gateway.StructuredInvoke[model.TagsInfo](ctx, deps.Gateway,
		[]*schema.Message{schema.UserMessage(convert)}, sessionID, deps.RepairAttempts)
}
