package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/experience-engine/server/internal/workflow/model"
)

func TestCombineExperience(t *testing.T) {
	basic := &model.BasicInfo{
		Caption:  "Chiang Mai Food Walk",
		Summary:  []string{"Evening street food tour in the Old Town."},
		Location: model.Location{City: "Chiang Mai", Country: "Thailand"},
		FAQ:      []model.FAQ{{Question: "How long?", Answer: "Three hours."}},
	}
	plan := &model.TravelPlan{Plan: []model.PlanItem{{Day: "1", Caption: "Food walk"}}}
	tags := &model.TagsInfo{ExperienceCategory: []string{"Food"}}

	t.Run("all present", func(t *testing.T) {
		exp := CombineExperience(basic, plan, tags, model.ClassificationManaged)
		require.NotNil(t, exp)
		assert.Equal(t, "Chiang Mai Food Walk", exp.Caption)
		assert.Equal(t, "Chiang Mai", exp.Location.City)
		assert.Equal(t, model.ClassificationManaged, exp.PlanType)
		assert.Same(t, plan, exp.TravelPlan)
		assert.Same(t, tags, exp.TagsInfo)
	})

	t.Run("nil basic info still surfaces plan and tags", func(t *testing.T) {
		exp := CombineExperience(nil, plan, tags, model.ClassificationUnmanaged)
		require.NotNil(t, exp)
		assert.Empty(t, exp.Caption)
		assert.Empty(t, exp.Location.City)
		assert.Same(t, plan, exp.TravelPlan)
		assert.Same(t, tags, exp.TagsInfo)
	})

	t.Run("everything absent still yields a record", func(t *testing.T) {
		exp := CombineExperience(nil, nil, nil, model.ClassificationUnmanaged)
		require.NotNil(t, exp)
		assert.Nil(t, exp.TravelPlan)
		assert.Nil(t, exp.TagsInfo)
		assert.Equal(t, model.ClassificationUnmanaged, exp.PlanType)
	})
}
