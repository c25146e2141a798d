package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesTokens(t *testing.T) {
	ctx := context.Background()

	p, err := RenderValidation(ctx, "A weekend in Lisbon.")
	require.NoError(t, err)
	assert.Contains(t, p, "A weekend in Lisbon.")
	assert.NotContains(t, p, "{{TEXT}}")

	p, err = RenderEval(ctx, "original input text", `{"caption": "x"}`)
	require.NoError(t, err)
	assert.Contains(t, p, "original input text")
	assert.Contains(t, p, `{"caption": "x"}`)
	assert.NotContains(t, p, "{{INPUT}}")
	assert.NotContains(t, p, "{{EXPERIENCE}}")
}

func TestRenderSurvivesJSONBraces(t *testing.T) {
	// templates embed literal JSON examples; rendering must not treat their
	// braces as variables
	ctx := context.Background()
	for name, fn := range map[string]func(context.Context, string) (string, error){
		"validation":     RenderValidation,
		"classification": RenderClassification,
		"basic_info":     RenderBasicInfo,
		"tags":           RenderTags,
		"plan":           RenderPlan,
	} {
		p, err := fn(ctx, "some text")
		require.NoError(t, err, name)
		assert.NotEmpty(t, p, name)
	}
}

func TestRenderExtractionAppendsFollowUp(t *testing.T) {
	ctx := context.Background()

	base, err := RenderExtraction(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, base)

	extended, err := RenderExtraction(ctx, "Focus on where the trip happens.")
	require.NoError(t, err)
	assert.Contains(t, extended, base)
	assert.Contains(t, extended, "Focus on where the trip happens.")
}
