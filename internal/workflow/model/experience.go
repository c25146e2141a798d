package model

// Structured records produced by the step nodes. Field names follow the wire
// shape the models are prompted to emit; everything downstream of extraction
// is optional and merged null-safely in the combine node.

// Coordinates is a GeoJSON-style point, [longitude, latitude].
type Coordinates struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type Location struct {
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	PlaceName   string      `json:"placeName"`
	Coordinates Coordinates `json:"coordinates"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BasicInfo is the first structured extraction of the basic_info branch.
type BasicInfo struct {
	Caption   string   `json:"caption"`
	Summary   []string `json:"summary"`
	Location  Location `json:"location"`
	Inclusion []string `json:"inclusion,omitempty"`
	Exclusion []string `json:"exclusion,omitempty"`
	FAQ       []FAQ    `json:"faq"`
}

// SecondaryTags holds the lower-evidence suggestions of the tagging sub-flow.
type SecondaryTags struct {
	ExperienceTypes    []string `json:"experienceTypes"`
	ExperienceSubTypes []string `json:"experienceSubTypes"`
	ExperienceTags     []string `json:"experienceTags"`
}

// TagsInfo is the taxonomy-constrained output of the tagging sub-flow.
// Category/type/subtype values must exist verbatim in the taxonomy; primary
// tags are a fixed count of 8, secondary tags 5.
type TagsInfo struct {
	ExperienceCategory []string      `json:"experienceCategory"`
	ExperienceTypes    []string      `json:"experienceTypes"`
	ExperienceSubTypes []string      `json:"experienceSubTypes"`
	ExperienceTags     []string      `json:"experienceTags"`
	SecondaryTags      SecondaryTags `json:"secondaryTags"`
}

// ActivityValue describes a single typed activity inside a schedule item.
type ActivityValue struct {
	Name            string  `json:"name"`
	DurationInHours float64 `json:"duration in hours"`
}

type ActivityType struct {
	Name      string        `json:"name"`
	Value     ActivityValue `json:"value"`
	PlaceName string        `json:"placename,omitempty"`
}

// ScheduleItem is one entry of a day's schedule. Time is a coarse bucket
// (Morning/Afternoon/Evening/Night) when the source has no explicit times.
type ScheduleItem struct {
	Time        string       `json:"time"`
	Timeline    string       `json:"timeline"`
	Description []string     `json:"description"`
	Type        ActivityType `json:"type"`
	Caption     string       `json:"caption,omitempty"`
}

// PlanItem is one day of the itinerary. Day is a label ("1", "2", ...);
// label order is not required to match array order.
type PlanItem struct {
	Day         string         `json:"day"`
	Caption     string         `json:"caption"`
	Description []string       `json:"description"`
	Schedule    []ScheduleItem `json:"schedule"`
}

type TravelPlan struct {
	Plan []PlanItem `json:"plan"`
}

// Experience is the combined record: basic info fields plus plan type,
// travel plan and tags. Produced exactly once, after both branches join.
type Experience struct {
	Caption    string             `json:"caption"`
	Summary    []string           `json:"summary"`
	Location   Location           `json:"location"`
	Inclusion  []string           `json:"inclusion,omitempty"`
	Exclusion  []string           `json:"exclusion,omitempty"`
	FAQ        []FAQ              `json:"faq"`
	PlanType   ClassificationType `json:"plan_type,omitempty"`
	TravelPlan *TravelPlan        `json:"travel_plan,omitempty"`
	TagsInfo   *TagsInfo          `json:"tags_info,omitempty"`
}

// Evaluation scores the final experience against the original input.
type Evaluation struct {
	Hallucination       float64 `json:"hallucination"`
	Accuracy            float64 `json:"accuracy"`
	Conciseness         float64 `json:"conciseness"`
	StructureCompliance string  `json:"structure_compliance"`
	OverallScore        int     `json:"overall_score"`
	ValidationRequired  bool    `json:"validation_required"`
	ValidationReason    string  `json:"validation_reason"`
}

// Classification is the wire shape of the classification node's model call.
type Classification struct {
	ClassificationType string   `json:"classification_type"`
	FoundCriteria      []string `json:"found_criteria"`
	MissingCriteria    []string `json:"missing_criteria"`
	Confidence         string   `json:"confidence"`
	Reason             string   `json:"reason"`
}

// ValidationReport is the wire shape of the validation node's model call.
type ValidationReport struct {
	HasDestination   bool   `json:"has_destination"`
	IsValidated      bool   `json:"is_validated"`
	ValidationPrompt string `json:"validation_prompt"`
	FailedReason     string `json:"failed_reason"`
	Confidence       string `json:"confidence"`
}
