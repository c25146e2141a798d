// Package prompts embeds the per-node prompt templates and renders them
// through the Eino prompt component so prompt callbacks fire.
package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/extraction.txt
var extractionPrompt string

//go:embed template/validation.txt
var validationPrompt string

//go:embed template/classification.txt
var classificationPrompt string

//go:embed template/basic_info.txt
var basicInfoPrompt string

//go:embed template/tags.txt
var tagsPrompt string

//go:embed template/plan.txt
var planPrompt string

//go:embed template/eval.txt
var evalPrompt string

// render substitutes known tokens only, then routes the result through the
// Eino prompt component. Templates are full of JSON braces, so FString-style
// variable expansion is deliberately avoided.
func render(ctx context.Context, template string, tokens ...string) (string, error) {
	content := template
	if len(tokens) > 0 {
		content = strings.NewReplacer(tokens...).Replace(template)
	}

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("prompt_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"prompt_messages": []*schema.Message{schema.UserMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderExtraction returns the extraction instruction, optionally extended
// with a follow-up instruction from a validation retry.
func RenderExtraction(ctx context.Context, extraInstruction string) (string, error) {
	p, err := render(ctx, extractionPrompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(extraInstruction) != "" {
		p = p + "\n\n" + extraInstruction
	}
	return p, nil
}

// RenderValidation renders the completeness-check prompt over extracted text.
func RenderValidation(ctx context.Context, text string) (string, error) {
	return render(ctx, validationPrompt, "{{TEXT}}", text)
}

// RenderClassification renders the MANAGED/UNMANAGED prompt.
func RenderClassification(ctx context.Context, text string) (string, error) {
	return render(ctx, classificationPrompt, "{{TEXT}}", text)
}

// RenderBasicInfo renders the structured basic-info extraction prompt.
func RenderBasicInfo(ctx context.Context, text string) (string, error) {
	return render(ctx, basicInfoPrompt, "{{TEXT}}", text)
}

// RenderTags renders the taxonomy-tagging prompt.
func RenderTags(ctx context.Context, text string) (string, error) {
	return render(ctx, tagsPrompt, "{{TEXT}}", text)
}

// RenderPlan renders the day-by-day itinerary prompt.
func RenderPlan(ctx context.Context, text string) (string, error) {
	return render(ctx, planPrompt, "{{TEXT}}", text)
}

// RenderEval renders the evaluation prompt over the original input and the
// combined experience JSON.
func RenderEval(ctx context.Context, originalInput, experienceJSON string) (string, error) {
	return render(ctx, evalPrompt, "{{INPUT}}", originalInput, "{{EXPERIENCE}}", experienceJSON)
}
