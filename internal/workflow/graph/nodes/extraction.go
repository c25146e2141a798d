package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/experience-engine/server/internal/workflow/gateway"
	"github.com/experience-engine/server/internal/workflow/graph/prompts"
	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

// FileUploader is the upload-manager surface the extraction node needs.
type FileUploader interface {
	Upload(ctx context.Context, path, sessionID string) (*genai.File, error)
}

// ExtractionDeps carries the collaborators of the extraction node.
type ExtractionDeps struct {
	Gateway  gateway.Invoker
	Uploader FileUploader
	Media    gateway.MediaTyper
}

// NewExtractionPreHandler seeds the run's input locators into state. The
// session id is minted by the runner and travels in via context.
func NewExtractionPreHandler() func(context.Context, model.RunInput, *model.WorkflowState) (model.RunInput, error) {
	return func(ctx context.Context, in model.RunInput, s *model.WorkflowState) (model.RunInput, error) {
		if s.SessionID == "" {
			s.SessionID = model.SessionIDFrom(ctx)
		}
		s.FilePath = in.FilePath
		s.URL = in.URL
		s.RawText = in.RawText
		return in, nil
	}
}

// NewExtractionNode creates the extraction node. Exactly one of the three
// paths runs per invocation: multimodal upload for a local file, multimodal
// content blocks for a URL, or a plain text invoke. Failures here are fatal;
// nothing downstream has valid input without extracted text.
func NewExtractionNode(deps ExtractionDeps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.RunInput) (string, error) {
		var sessionID, extraInstruction string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			sessionID = s.SessionID
			extraInstruction = s.ValidationPrompt
			return nil
		}); err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		prompt, err := prompts.RenderExtraction(ctx, extraInstruction)
		if err != nil {
			return "", fmt.Errorf("render extraction prompt: %w", err)
		}

		switch {
		case input.FilePath != "":
			return extractFromFile(ctx, deps, input.FilePath, prompt, sessionID)
		case input.URL != "":
			return extractFromURL(ctx, deps, input.URL, prompt, sessionID)
		default:
			return extractFromText(ctx, deps, input.RawText, prompt, sessionID)
		}
	})
}

// NewExtractionPostHandler records the extracted narrative in state.
func NewExtractionPostHandler() func(context.Context, string, *model.WorkflowState) (string, error) {
	return func(ctx context.Context, out string, s *model.WorkflowState) (string, error) {
		s.ExtractedText = out
		s.ExtractionComplete = true
		logx.Debug().
			Str("session_id", s.SessionID).
			Str("node", NodeExtraction).
			Int("length", len(out)).
			Msg("Extraction complete")
		return out, nil
	}
}

func extractFromFile(ctx context.Context, deps ExtractionDeps, path, prompt, sessionID string) (string, error) {
	file, err := deps.Uploader.Upload(ctx, path, sessionID)
	if err != nil {
		return "", err
	}
	// Cache the handle so eval can reuse it instead of re-uploading.
	if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
		s.UploadedFile = file
		return nil
	}); err != nil {
		return "", fmt.Errorf("failed to access state: %w", err)
	}
	return deps.Gateway.GenerateWithFile(ctx, file, prompt, sessionID)
}

func extractFromURL(ctx context.Context, deps ExtractionDeps, url, prompt, sessionID string) (string, error) {
	mainType, subType, err := deps.Media.ContentType(ctx, url)
	if err != nil {
		return "", err
	}
	msg, err := gateway.URLContentMessage(prompt, url, mainType, subType)
	if err != nil {
		return "", err
	}
	resp, err := deps.Gateway.Invoke(ctx, []*schema.Message{msg}, sessionID)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func extractFromText(ctx context.Context, deps ExtractionDeps, text, prompt, sessionID string) (string, error) {
	resp, err := deps.Gateway.Invoke(ctx, []*schema.Message{
		schema.UserMessage(prompt + "\n\nText To Analyze:\n" + text),
	}, sessionID)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
