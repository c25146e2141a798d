package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/experience-engine/server/internal/workflow/model"
	"github.com/experience-engine/server/internal/workflow/taxonomy"
	logx "github.com/experience-engine/server/pkg/logger"
)

// ModelsConfig holds everything needed to construct all per-node gateways.
type ModelsConfig struct {
	APIKey  string
	BaseURL string

	Extraction     model.ExtractionModelConfig
	Validation     model.ValidationModelConfig
	Classification model.ClassificationModelConfig
	BasicInfo      model.BasicInfoModelConfig
	Plan           model.PlanModelConfig
	Eval           model.EvalModelConfig

	Workflow model.WorkflowConfig
}

// Models bundles one Gateway per workflow node plus the file uploader. Each
// node gets its own model and temperature; they all share the retry policy
// and the underlying Gemini client.
type Models struct {
	Extraction     *Gateway
	Validation     *Gateway
	Classification *Gateway
	BasicInfo      *Gateway
	Tagging        *Gateway
	Plan           *Gateway
	Eval           *Gateway
	Uploader       *Uploader
}

// NewModels creates the Gemini client, one chat model per node, and wraps
// them in gateways. The tagging gateway has the taxonomy tool bound.
func NewModels(ctx context.Context, cfg ModelsConfig) (*Models, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	policy := RetryPolicy{
		MaxRetries: cfg.Workflow.MaxLLMRetries,
		BackoffCap: time.Duration(cfg.Workflow.BackoffCapSec) * time.Second,
	}

	newGateway := func(name string, mc model.NodeModelConfig, opts ...Option) (*Gateway, error) {
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       mc.Model,
			Temperature: &mc.Temperature,
			MaxTokens:   &mc.MaxTokens,
		})
		if err != nil {
			logx.Error().Err(err).Str("node", name).Msg("Error creating chat model")
			return nil, fmt.Errorf("error creating %s model: %w", name, err)
		}
		return New(cm, mc.Model, policy, opts...), nil
	}

	m := &Models{}
	if m.Extraction, err = newGateway("extraction",
		model.NodeModelConfig{Model: cfg.Extraction.Model, Temperature: cfg.Extraction.Temperature, MaxTokens: cfg.Extraction.MaxTokens},
		WithGenAIClient(client)); err != nil {
		return nil, err
	}
	if m.Validation, err = newGateway("validation",
		model.NodeModelConfig{Model: cfg.Validation.Model, Temperature: cfg.Validation.Temperature, MaxTokens: cfg.Validation.MaxTokens}); err != nil {
		return nil, err
	}
	if m.Classification, err = newGateway("classification",
		model.NodeModelConfig{Model: cfg.Classification.Model, Temperature: cfg.Classification.Temperature, MaxTokens: cfg.Classification.MaxTokens}); err != nil {
		return nil, err
	}
	if m.BasicInfo, err = newGateway("basic_info",
		model.NodeModelConfig{Model: cfg.BasicInfo.Model, Temperature: cfg.BasicInfo.Temperature, MaxTokens: cfg.BasicInfo.MaxTokens}); err != nil {
		return nil, err
	}
	if m.Plan, err = newGateway("plan",
		model.NodeModelConfig{Model: cfg.Plan.Model, Temperature: cfg.Plan.Temperature, MaxTokens: cfg.Plan.MaxTokens}); err != nil {
		return nil, err
	}
	if m.Eval, err = newGateway("eval",
		model.NodeModelConfig{Model: cfg.Eval.Model, Temperature: cfg.Eval.Temperature, MaxTokens: cfg.Eval.MaxTokens},
		WithGenAIClient(client)); err != nil {
		return nil, err
	}

	if m.Tagging, err = newTaggingGateway(ctx, client, cfg, policy); err != nil {
		return nil, err
	}

	m.Uploader = NewUploader(client,
		time.Duration(cfg.Workflow.UploadPollSec)*time.Second,
		time.Duration(cfg.Workflow.UploadTimeoutSec)*time.Second,
	)

	return m, nil
}

// newTaggingGateway builds the tool-augmented gateway for the tagging
// sub-flow: the basic_info model with the taxonomy tool bound.
func newTaggingGateway(ctx context.Context, client *genai.Client, cfg ModelsConfig, policy RetryPolicy) (*Gateway, error) {
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.BasicInfo.Model,
		Temperature: &cfg.BasicInfo.Temperature,
		MaxTokens:   &cfg.BasicInfo.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating tagging model")
		return nil, fmt.Errorf("error creating tagging model: %w", err)
	}

	taxTool := taxonomy.NewTool()
	infos, err := toolInfos(ctx, taxTool)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get taxonomy tool info")
		return nil, fmt.Errorf("failed to get taxonomy tool info: %w", err)
	}
	if err := cm.BindTools(infos); err != nil {
		logx.Error().Err(err).Msg("Failed to bind taxonomy tool")
		return nil, fmt.Errorf("failed to bind taxonomy tool: %w", err)
	}

	return New(cm, cfg.BasicInfo.Model, policy, WithTools(taxTool)), nil
}

func toolInfos(ctx context.Context, tools ...tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
