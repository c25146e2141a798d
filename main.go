package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/experience-engine/server/internal/core"
	"github.com/experience-engine/server/internal/workflow/graph"
	"github.com/experience-engine/server/internal/workflow/model"
	"github.com/experience-engine/server/internal/workflow/repo"
	logx "github.com/experience-engine/server/pkg/logger"
	pkgredis "github.com/experience-engine/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the workflow example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Per-node model configs
	Extraction     model.ExtractionModelConfig
	Validation     model.ValidationModelConfig
	Classification model.ClassificationModelConfig
	BasicInfo      model.BasicInfoModelConfig
	Plan           model.PlanModelConfig
	Eval           model.EvalModelConfig

	Workflow model.WorkflowConfig
}

func main() {
	fmt.Println("Testing experience extraction workflow...")
	ctx := context.Background()
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(os.Getenv("APP_ENV"))})

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.Workflow.ResultTTL)
	if err != nil {
		log.Fatalf("Invalid WORKFLOW_RESULT_TTL '%s': %v", envCfg.Workflow.ResultTTL, err)
	}
	results := repo.NewRedisResultStore(rdb, ttl)

	runner, err := graph.BuildWorkflowGraph(ctx, graph.Config{
		APIKey:         envCfg.APIKey,
		BaseURL:        envCfg.BaseURL,
		Extraction:     envCfg.Extraction,
		Validation:     envCfg.Validation,
		Classification: envCfg.Classification,
		BasicInfo:      envCfg.BasicInfo,
		Plan:           envCfg.Plan,
		Eval:           envCfg.Eval,
		Workflow:       envCfg.Workflow,
		Results:        results,
	})
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	testInputs := []struct {
		description string
		input       model.RunInput
	}{
		{
			description: "Raw text travel document",
			input: model.RunInput{
				RawText: `Discover the Old Town of Chiang Mai on a guided evening food walk.
Meet at Tha Phae Gate at 17:00, visit five street food stalls over three hours,
and finish with khao soi at a family-run kitchen near Wat Chedi Luang.
Price 1,200 THB per person, groups of 2 to 8. Runs daily except Mondays.`,
			},
		},
		{
			description: "Public itinerary page",
			input: model.RunInput{
				URL: "https://example.com/experiences/bangkok-canal-tour",
			},
		},
	}

	for i, test := range testInputs {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Println("Processing...")

		out, err := runner.Run(ctx, test.input)
		if err != nil {
			log.Fatalf("Failed to run workflow for test %d: %v", i+1, err)
		}

		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Printf("Result %d (session %s):\n%s\n", i+1, out.SessionID, string(b))

		// readback check against the result store
		saved, err := results.Get(ctx, out.SessionID)
		if err != nil {
			log.Printf("Warning: could not read back result %s: %v", out.SessionID, err)
		} else {
			fmt.Printf("Readback OK, total cost %.6f USD\n", saved.TotalCostUSD)
		}
	}

	fmt.Println("\nAll workflow tests completed.")
}
