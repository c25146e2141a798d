package nodes

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// fakeInvoker replays a scripted sequence of responses and records prompts.
type fakeInvoker struct {
	responses   []string
	errs        []error
	fileContent string
	calls       int
	prompts     []string
}

func (f *fakeInvoker) Invoke(ctx context.Context, msgs []*schema.Message, sessionID string) (*schema.Message, error) {
	i := f.calls
	f.calls++
	if len(msgs) > 0 {
		f.prompts = append(f.prompts, msgs[len(msgs)-1].Content)
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return schema.AssistantMessage(f.responses[i], nil), nil
	}
	return schema.AssistantMessage("", nil), nil
}

func (f *fakeInvoker) GenerateWithFile(ctx context.Context, file *genai.File, prompt, sessionID string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.fileContent, nil
}

// fakeTagger scripts the tool-augmented tagging turns.
type fakeTagger struct {
	fakeInvoker
	toolResponses []string
	toolErrs      []error
	toolCalls     int
}

func (f *fakeTagger) InvokeWithTools(ctx context.Context, msgs []*schema.Message, sessionID string) (*schema.Message, error) {
	i := f.toolCalls
	f.toolCalls++
	if i < len(f.toolErrs) && f.toolErrs[i] != nil {
		return nil, f.toolErrs[i]
	}
	if i < len(f.toolResponses) {
		return schema.AssistantMessage(f.toolResponses[i], nil), nil
	}
	return schema.AssistantMessage("", nil), nil
}
