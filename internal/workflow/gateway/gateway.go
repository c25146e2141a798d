// Package gateway is the single choke point for all model calls in the
// workflow: text invoke, structured invoke, tool-augmented invoke and
// multimodal file generation, each with bounded retry and backoff.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	errx "github.com/experience-engine/server/internal/core/error"
	"github.com/experience-engine/server/internal/workflow/jsonx"
	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

// Invoker is the gateway surface step nodes depend on.
type Invoker interface {
	Invoke(ctx context.Context, msgs []*schema.Message, sessionID string) (*schema.Message, error)
	GenerateWithFile(ctx context.Context, file *genai.File, prompt, sessionID string) (string, error)
}

// ToolInvoker runs a single bounded tool-use iteration: invoke, execute any
// tool calls, re-invoke with the tool results.
type ToolInvoker interface {
	Invoker
	InvokeWithTools(ctx context.Context, msgs []*schema.Message, sessionID string) (*schema.Message, error)
}

// RetryPolicy caps attempts and backoff for every call through the gateway.
type RetryPolicy struct {
	MaxRetries int           // retries after the first attempt
	BackoffCap time.Duration // ceiling for the exponential delay
}

// Backoff returns the delay before retry k (1-based): min(2^k, cap) seconds.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if p.BackoffCap > 0 && d > p.BackoffCap {
		return p.BackoffCap
	}
	return d
}

// fileGenerator abstracts the multimodal provider surface for tests.
type fileGenerator interface {
	generate(ctx context.Context, modelName string, file *genai.File, prompt string) (string, error)
}

type genaiFileGenerator struct {
	client *genai.Client
}

func (g *genaiFileGenerator) generate(ctx context.Context, modelName string, file *genai.File, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromURI(file.URI, file.MIMEType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, modelName, contents, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Gateway wraps one chat model (and optionally the multimodal client) behind
// the retry policy. One Gateway per workflow node keeps per-node model and
// temperature settings isolated.
type Gateway struct {
	cm        einomodel.BaseChatModel
	fileGen   fileGenerator
	modelName string
	policy    RetryPolicy
	sleep     func(time.Duration)
	tools     map[string]tool.InvokableTool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithSleep replaces the backoff sleep, for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(g *Gateway) { g.sleep = fn }
}

// WithGenAIClient attaches the multimodal client for GenerateWithFile.
func WithGenAIClient(client *genai.Client) Option {
	return func(g *Gateway) { g.fileGen = &genaiFileGenerator{client: client} }
}

// WithTools registers the tools InvokeWithTools may execute. The chat model
// itself must have the matching tool infos bound at construction.
func WithTools(tools ...tool.BaseTool) Option {
	return func(g *Gateway) {
		g.tools = make(map[string]tool.InvokableTool, len(tools))
		for _, t := range tools {
			info, err := t.Info(context.Background())
			if err != nil || info == nil {
				continue
			}
			if inv, ok := t.(tool.InvokableTool); ok {
				g.tools[info.Name] = inv
			}
		}
	}
}

// New builds a Gateway over a chat model.
func New(cm einomodel.BaseChatModel, modelName string, policy RetryPolicy, opts ...Option) *Gateway {
	g := &Gateway{
		cm:        cm,
		modelName: modelName,
		policy:    policy,
		sleep:     time.Sleep,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Invoke calls the chat model, retrying on any error with exponential
// backoff. Exhausting the retry budget surfaces the terminal failure to the
// caller; the gateway never swallows it.
func (g *Gateway) Invoke(ctx context.Context, msgs []*schema.Message, sessionID string) (*schema.Message, error) {
	var lastErr error
	start := time.Now()
	for attempt := 1; attempt <= g.policy.MaxRetries+1; attempt++ {
		resp, err := g.cm.Generate(ctx, msgs)
		if err == nil {
			g.recordUsage(ctx, resp, sessionID, attempt, time.Since(start))
			return resp, nil
		}
		lastErr = err
		logx.Error().
			Str("session_id", sessionID).
			Str("model", g.modelName).
			Int("attempt", attempt).
			Err(err).
			Msg("LLM invoke failed")
		if attempt <= g.policy.MaxRetries {
			g.sleep(g.policy.Backoff(attempt))
		}
	}
	return nil, errx.Upstream(fmt.Errorf("%w: %v", errx.ErrRetriesExhausted, lastErr), "llm invoke failed")
}

// GenerateWithFile generates content for a pre-uploaded file plus prompt
// through the multimodal client, under the same retry policy. It does not
// manage the upload lifecycle; see Uploader.
func (g *Gateway) GenerateWithFile(ctx context.Context, file *genai.File, prompt, sessionID string) (string, error) {
	if g.fileGen == nil {
		return "", fmt.Errorf("multimodal client not configured")
	}
	var lastErr error
	start := time.Now()
	for attempt := 1; attempt <= g.policy.MaxRetries+1; attempt++ {
		content, err := g.fileGen.generate(ctx, g.modelName, file, prompt)
		if err == nil {
			logx.Info().
				Str("session_id", sessionID).
				Str("model", g.modelName).
				Int("attempt", attempt).
				Dur("duration", time.Since(start)).
				Msg("Multimodal generate succeeded")
			return content, nil
		}
		lastErr = err
		logx.Error().
			Str("session_id", sessionID).
			Str("model", g.modelName).
			Int("attempt", attempt).
			Err(err).
			Msg("Multimodal generate failed")
		if attempt <= g.policy.MaxRetries {
			g.sleep(g.policy.Backoff(attempt))
		}
	}
	return "", errx.Upstream(fmt.Errorf("%w: %v", errx.ErrRetriesExhausted, lastErr), "multimodal generate failed")
}

// InvokeWithTools performs one bounded tool-use iteration. Tool calls beyond
// the first model turn are executed and fed back once; there is no open-ended
// agent loop here.
func (g *Gateway) InvokeWithTools(ctx context.Context, msgs []*schema.Message, sessionID string) (*schema.Message, error) {
	resp, err := g.Invoke(ctx, msgs, sessionID)
	if err != nil {
		return nil, err
	}
	if len(resp.ToolCalls) == 0 {
		return resp, nil
	}

	next := append(append([]*schema.Message{}, msgs...), resp)
	for _, call := range resp.ToolCalls {
		result, terr := g.runTool(ctx, call)
		if terr != nil {
			logx.Warn().
				Str("session_id", sessionID).
				Str("tool", call.Function.Name).
				Err(terr).
				Msg("Tool execution failed; feeding error back to model")
			result = fmt.Sprintf("{\"error\":%q}", terr.Error())
		}
		next = append(next, &schema.Message{
			Role:       schema.Tool,
			Content:    result,
			ToolCallID: call.ID,
		})
	}
	return g.Invoke(ctx, next, sessionID)
}

func (g *Gateway) runTool(ctx context.Context, call schema.ToolCall) (string, error) {
	t, ok := g.tools[call.Function.Name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", call.Function.Name)
	}
	args := call.Function.Arguments
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	return t.InvokableRun(ctx, args)
}

func (g *Gateway) recordUsage(ctx context.Context, resp *schema.Message, sessionID string, attempt int, dur time.Duration) {
	if !model.CostEnabled() || resp == nil || resp.ResponseMeta == nil || resp.ResponseMeta.Usage == nil {
		return
	}
	usage := resp.ResponseMeta.Usage
	pricing := model.ResolvePricing(g.modelName)
	inC, outC, totalC := model.ComputeCost(usage, pricing)
	if meter := model.MeterFrom(ctx); meter != nil {
		meter.Add(totalC)
	}
	logx.Debug().
		Str("session_id", sessionID).
		Str("model", g.modelName).
		Int("attempt", attempt).
		Dur("duration", dur).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

// StructuredInvoke invokes the gateway and coerces the response into T.
// Malformed JSON is repaired locally, then via the model itself, bounded by
// repairAttempts; a response that parses but does not fit T surfaces as
// ErrSchemaMismatch, distinct from transport failure.
func StructuredInvoke[T any](ctx context.Context, inv Invoker, msgs []*schema.Message, sessionID string, repairAttempts int) (*T, error) {
	resp, err := inv.Invoke(ctx, msgs, sessionID)
	if err != nil {
		return nil, err
	}
	return CoerceInto[T](ctx, inv, resp.Content, sessionID, repairAttempts)
}

// CoerceInto converts raw model text into T, using the local and model-backed
// repair passes for malformed payloads.
func CoerceInto[T any](ctx context.Context, inv Invoker, content, sessionID string, repairAttempts int) (*T, error) {
	out, derr := jsonx.Decode[T](content)
	if derr == nil {
		return out, nil
	}
	if errors.Is(derr, errx.ErrSchemaMismatch) {
		return nil, derr
	}
	raw, rerr := jsonx.RepairWithModel(ctx, inv, content, sessionID, repairAttempts)
	if rerr != nil {
		return nil, rerr
	}
	var repaired T
	if err := json.Unmarshal(raw, &repaired); err != nil {
		return nil, fmt.Errorf("%w: %v", errx.ErrSchemaMismatch, err)
	}
	return &repaired, nil
}
