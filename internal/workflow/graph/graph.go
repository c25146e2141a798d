package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	errx "github.com/experience-engine/server/internal/core/error"
	"github.com/experience-engine/server/internal/workflow/gateway"
	"github.com/experience-engine/server/internal/workflow/graph/nodes"
	"github.com/experience-engine/server/internal/workflow/graph/observers"
	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

// Runner executes one workflow run end-to-end with the public RunInput.
type Runner interface {
	Run(ctx context.Context, in model.RunInput) (*model.RunOutput, error)
}

// ResultStore persists finished run outputs for later retrieval.
type ResultStore interface {
	Save(ctx context.Context, sessionID string, out *model.RunOutput) error
}

// Config holds everything needed to compose the full workflow graph
// end-to-end. This is a convenience layer over GraphConfig that also
// constructs the per-node chat models and the file uploader.
type Config struct {
	APIKey  string
	BaseURL string

	Extraction     model.ExtractionModelConfig
	Validation     model.ValidationModelConfig
	Classification model.ClassificationModelConfig
	BasicInfo      model.BasicInfoModelConfig
	Plan           model.PlanModelConfig
	Eval           model.EvalModelConfig

	Workflow model.WorkflowConfig

	// Results is optional. When set, every finished run is saved under its
	// session id.
	Results ResultStore
}

// GraphConfig holds all collaborators needed to build the graph. Every field
// is an interface so tests can substitute fakes for the live Gemini stack.
type GraphConfig struct {
	Extraction nodes.ExtractionDeps
	Validation gateway.Invoker
	Classify   gateway.Invoker
	BasicInfo  nodes.BasicInfoDeps
	Plan       gateway.Invoker
	Eval       gateway.Invoker

	Workflow model.WorkflowConfig
}

// GraphBuilder handles the construction of the document workflow graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.RunInput, *model.RunOutput]
}

type graphRunner struct {
	runnable compose.Runnable[model.RunInput, *model.RunOutput]
	results  ResultStore
}

// Run validates the input, mints a session, and executes the graph. Input
// validation failures return an error; everything past that point folds into
// RunOutput.Error so callers always get an inspectable result.
func (r *graphRunner) Run(ctx context.Context, in model.RunInput) (*model.RunOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	meter := &model.CostMeter{}
	ctx = model.WithSessionID(ctx, sessionID)
	ctx = model.WithCostMeter(ctx, meter)

	logx.Info().Str("session_id", sessionID).Msg("Workflow run started")

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewCallbacks()))
	if err != nil {
		logx.Warn().Str("session_id", sessionID).Err(err).Msg("Workflow run failed")
		out = &model.RunOutput{
			SessionID: sessionID,
			Error:     err.Error(),
		}
	}
	out.TotalCostUSD = meter.Total()

	if r.results != nil {
		if err := r.results.Save(ctx, sessionID, out); err != nil {
			logx.Warn().Str("session_id", sessionID).Err(err).Msg("Failed to save run result")
		}
	}

	logx.Info().
		Str("session_id", sessionID).
		Bool("failed", out.Error != "").
		Float64("total_cost_usd", out.TotalCostUSD).
		Msg("Workflow run finished")
	return out, nil
}

func validateInput(in model.RunInput) error {
	set := 0
	if in.FilePath != "" {
		set++
	}
	if in.URL != "" {
		set++
	}
	if in.RawText != "" {
		set++
	}
	switch {
	case set == 0:
		return errx.ClientFault(errx.ErrInputMissing, "provide a file path, URL, or raw text")
	case set > 1:
		return errx.ClientFault(errx.ErrInputConflict, "provide exactly one of file path, URL, or raw text")
	}
	return nil
}

// BuildWorkflowGraph composes the per-node gateways, builds the graph, and
// returns a Runner.
func BuildWorkflowGraph(ctx context.Context, cfg Config) (Runner, error) {
	models, err := gateway.NewModels(ctx, gateway.ModelsConfig{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Extraction:     cfg.Extraction,
		Validation:     cfg.Validation,
		Classification: cfg.Classification,
		BasicInfo:      cfg.BasicInfo,
		Plan:           cfg.Plan,
		Eval:           cfg.Eval,
		Workflow:       cfg.Workflow,
	})
	if err != nil {
		return nil, err
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Extraction: nodes.ExtractionDeps{
			Gateway:  models.Extraction,
			Uploader: models.Uploader,
			Media:    gateway.NewHeadMediaTyper(),
		},
		Validation: models.Validation,
		Classify:   models.Classification,
		BasicInfo: nodes.BasicInfoDeps{
			Gateway:        models.BasicInfo,
			Tagger:         models.Tagging,
			RepairAttempts: cfg.Workflow.RepairAttempts,
		},
		Plan:     models.Plan,
		Eval:     models.Eval,
		Workflow: cfg.Workflow,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Workflow graph built successfully")
	return &graphRunner{runnable: runnable, results: cfg.Results}, nil
}

// BuildGraph constructs and compiles the workflow graph from explicit
// collaborators.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.RunInput, *model.RunOutput], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Extraction.Gateway == nil || config.Validation == nil || config.Classify == nil ||
		config.BasicInfo.Gateway == nil || config.BasicInfo.Tagger == nil ||
		config.Plan == nil || config.Eval == nil {
		return nil, fmt.Errorf("gateways are not properly initialized")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.RunInput, *model.RunOutput](
			compose.WithGenLocalState(func(ctx context.Context) *model.WorkflowState {
				return &model.WorkflowState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph.
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeExtraction,
		nodes.NewExtractionNode(b.config.Extraction),
		compose.WithStatePreHandler(nodes.NewExtractionPreHandler()),
		compose.WithStatePostHandler(nodes.NewExtractionPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeValidation,
		nodes.NewValidationNode(b.config.Validation, b.config.Workflow.ValidationMaxAttempts, b.config.Workflow.RepairAttempts),
	)

	b.graph.AddLambdaNode(nodes.NodeClassification,
		nodes.NewClassificationNode(b.config.Classify, b.config.Workflow.RepairAttempts),
	)

	b.graph.AddLambdaNode(nodes.NodeBasicInfo,
		nodes.NewBasicInfoNode(b.config.BasicInfo),
		compose.WithStatePostHandler(nodes.NewBasicInfoPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodePlan,
		nodes.NewPlanNode(b.config.Plan, b.config.Workflow.RepairAttempts),
		compose.WithStatePostHandler(nodes.NewPlanPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeCombine,
		nodes.NewCombineNode(),
		compose.WithStatePostHandler(nodes.NewCombinePostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeEval,
		nodes.NewEvalNode(b.config.Eval, b.config.Workflow.RepairAttempts),
	)
}

// addEdges creates the flow connections. basic_info and plan run in parallel
// after classification; combine waits for both partial updates.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeExtraction},
		{nodes.NodeExtraction, nodes.NodeValidation},
		{nodes.NodeValidation, nodes.NodeClassification},
		{nodes.NodeClassification, nodes.NodeBasicInfo},
		{nodes.NodeClassification, nodes.NodePlan},
		{nodes.NodeBasicInfo, nodes.NodeCombine},
		{nodes.NodePlan, nodes.NodeCombine},
		{nodes.NodeCombine, nodes.NodeEval},
		{nodes.NodeEval, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// compile finalizes the graph in DAG trigger mode so the combine node waits
// for every predecessor before merging their disjoint map outputs. The
// topology is acyclic, so no run step cap is needed.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.RunInput, *model.RunOutput], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithNodeTriggerMode(compose.AllPredecessor),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
