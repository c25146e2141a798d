package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

// CombineExperience merges the branch outputs into the final experience
// record. Any input may be nil after an upstream failure; absent sections
// are omitted, never a reason to crash. A nil basic info yields an
// experience with empty basic fields so the plan and tags still surface.
func CombineExperience(basic *model.BasicInfo, plan *model.TravelPlan, tags *model.TagsInfo, planType model.ClassificationType) *model.Experience {
	exp := &model.Experience{
		PlanType:   planType,
		TravelPlan: plan,
		TagsInfo:   tags,
	}
	if basic != nil {
		exp.Caption = basic.Caption
		exp.Summary = basic.Summary
		exp.Location = basic.Location
		exp.Inclusion = basic.Inclusion
		exp.Exclusion = basic.Exclusion
		exp.FAQ = basic.FAQ
	}
	return exp
}

// NewCombineNode creates the join node. It runs only after BOTH branches
// complete; the engine merges their disjoint-key partial updates into the
// single map this node receives. Pure merge, no model calls.
func NewCombineNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, update map[string]any) (*model.Experience, error) {
		basic, _ := update[model.KeyBasicInfo].(*model.BasicInfo)
		plan, _ := update[model.KeyTravelPlan].(*model.TravelPlan)
		tags, _ := update[model.KeyTagsInfo].(*model.TagsInfo)

		var planType model.ClassificationType
		var sessionID string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			planType = s.ClassificationType
			sessionID = s.SessionID
			return nil
		}); err != nil {
			return nil, err
		}

		exp := CombineExperience(basic, plan, tags, planType)

		logx.Debug().
			Str("session_id", sessionID).
			Str("node", NodeCombine).
			Bool("has_basic_info", basic != nil).
			Bool("has_plan", plan != nil).
			Bool("has_tags", tags != nil).
			Msg("Experience combined")

		return exp, nil
	})
}

// NewCombinePostHandler records the combined experience in state.
func NewCombinePostHandler() func(context.Context, *model.Experience, *model.WorkflowState) (*model.Experience, error) {
	return func(ctx context.Context, out *model.Experience, s *model.WorkflowState) (*model.Experience, error) {
		s.Experience = out
		return out, nil
	}
}
