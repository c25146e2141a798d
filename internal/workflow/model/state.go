package model

import (
	"google.golang.org/genai"
)

// WorkflowState stores per-run state for the experience extraction graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - The two fan-out branches (basic_info, plan) write disjoint fields only;
//     their graph outputs are disjoint-key partial updates merged at the join.
type WorkflowState struct {
	SessionID string // immutable once set; correlates every log line of the run

	// Input locator. Exactly one of the three is non-empty for a run.
	FilePath string
	URL      string
	RawText  string

	ExtractedText      string
	ExtractionComplete bool
	UploadedFile       *genai.File // set by extraction for file inputs, reused by eval

	Validated          bool
	ValidationAttempts int
	ValidationPrompt   string // extra instruction fed back into extraction on retry
	Next               string

	ClassificationType   ClassificationType
	ClassificationReason string

	BasicInfo  *BasicInfo
	TagsInfo   *TagsInfo
	TravelPlan *TravelPlan
	Experience *Experience
	Evaluation *Evaluation

	FailedReason string

	// Accumulated total LLM cost (USD) across model invocations for this run.
	TotalCostUSD float64
}

// ClassificationType labels how complete the booking detail in the source is.
type ClassificationType string

const (
	ClassificationManaged   ClassificationType = "MANAGED"
	ClassificationUnmanaged ClassificationType = "UNMANAGED"
)

// Partial-update keys emitted by the fan-out branches. The two branches must
// never emit the same key; the graph join merges their maps and a key
// collision there is a wiring bug, not a runtime race.
const (
	KeyBasicInfo  = "basic_info"
	KeyTagsInfo   = "tags_info"
	KeyTravelPlan = "travel_plan"
)

// Node names used when routing between validation outcomes.
const (
	NextExtraction     = "extraction"
	NextClassification = "classification"
	NextEnd            = "end"
)

// RunInput is the public trigger for one workflow run. Exactly one of the
// three locators must be set.
type RunInput struct {
	FilePath string `json:"file_path,omitempty"`
	URL      string `json:"url,omitempty"`
	RawText  string `json:"raw_text,omitempty"`
}

// RunOutput is what the caller receives for every run, fatal or not.
type RunOutput struct {
	SessionID            string             `json:"session_id"`
	Experience           *Experience        `json:"experience,omitempty"`
	Evaluation           *Evaluation        `json:"evaluation,omitempty"`
	ClassificationType   ClassificationType `json:"classification_type,omitempty"`
	ClassificationReason string             `json:"classification_reason,omitempty"`
	Error                string             `json:"error,omitempty"`
	TotalCostUSD         float64            `json:"total_cost_usd"`
}
