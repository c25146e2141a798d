package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/experience-engine/server/internal/workflow/gateway"
	"github.com/experience-engine/server/internal/workflow/graph/prompts"
	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

// NewPlanNode creates the plan branch node: one structured call converting
// the extracted narrative into an ordered day-by-day itinerary. The model
// assigns coarse time buckets and duration estimates when the source has
// none. Branch failure degrades to key omission.
func NewPlanNode(gw gateway.Invoker, repairAttempts int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, extractedText string) (map[string]any, error) {
		var sessionID string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			sessionID = s.SessionID
			return nil
		}); err != nil {
			return nil, err
		}

		update := map[string]any{}
		prompt, err := prompts.RenderPlan(ctx, extractedText)
		if err != nil {
			logx.Warn().Str("session_id", sessionID).Err(err).Msg("Render plan prompt failed; omitting plan")
			return update, nil
		}

		plan, err := gateway.StructuredInvoke[model.TravelPlan](ctx, gw,
			[]*schema.Message{schema.UserMessage(prompt)}, sessionID, repairAttempts)
		if err != nil {
			logx.Warn().Str("session_id", sessionID).Err(err).Msg("Plan extraction failed; omitting")
			return update, nil
		}

		logx.Debug().
			Str("session_id", sessionID).
			Str("node", NodePlan).
			Int("days", len(plan.Plan)).
			Msg("Plan extracted")

		update[model.KeyTravelPlan] = plan
		return update, nil
	})
}

// NewPlanPostHandler persists the travel plan into state.
func NewPlanPostHandler() func(context.Context, map[string]any, *model.WorkflowState) (map[string]any, error) {
	return func(ctx context.Context, out map[string]any, s *model.WorkflowState) (map[string]any, error) {
		if plan, ok := out[model.KeyTravelPlan].(*model.TravelPlan); ok {
			s.TravelPlan = plan
		}
		return out, nil
	}
}
