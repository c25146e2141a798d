package model

// ================ Config ================

// NodeModelConfig is the shared shape of one node's model settings.
type NodeModelConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

type ExtractionModelConfig struct {
	Model       string  `envconfig:"EXTRACTION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"EXTRACTION_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"EXTRACTION_TEMPERATURE" default:"0.3"`
}

type ValidationModelConfig struct {
	Model       string  `envconfig:"VALIDATION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"VALIDATION_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"VALIDATION_TEMPERATURE" default:"0.2"`
}

type ClassificationModelConfig struct {
	Model       string  `envconfig:"CLASSIFICATION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFICATION_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CLASSIFICATION_TEMPERATURE" default:"0.1"`
}

type BasicInfoModelConfig struct {
	Model       string  `envconfig:"BASIC_INFO_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"BASIC_INFO_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"BASIC_INFO_TEMPERATURE" default:"0.4"`
}

type PlanModelConfig struct {
	Model       string  `envconfig:"PLAN_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"PLAN_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"PLAN_TEMPERATURE" default:"0.4"`
}

type EvalModelConfig struct {
	Model       string  `envconfig:"EVAL_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"EVAL_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"EVAL_TEMPERATURE" default:"0.2"`
}

// WorkflowConfig tunes the orchestration-level knobs: gateway retries, the
// JSON repair budget, upload polling and the validation attempt cap.
type WorkflowConfig struct {
	MaxLLMRetries    int `envconfig:"WORKFLOW_MAX_LLM_RETRIES" default:"2"`
	BackoffCapSec    int `envconfig:"WORKFLOW_BACKOFF_CAP_SEC" default:"30"`
	RepairAttempts   int `envconfig:"WORKFLOW_REPAIR_ATTEMPTS" default:"2"`
	UploadPollSec    int `envconfig:"WORKFLOW_UPLOAD_POLL_SEC" default:"2"`
	UploadTimeoutSec int `envconfig:"WORKFLOW_UPLOAD_TIMEOUT_SEC" default:"180"`
	// Validation retry cap. Zero means the validation pass never requests a
	// second extraction; it either falls through or terminates the run.
	ValidationMaxAttempts int `envconfig:"WORKFLOW_VALIDATION_MAX_ATTEMPTS" default:"0"`

	ResultTTL string `envconfig:"WORKFLOW_RESULT_TTL" default:"24h"`
}
