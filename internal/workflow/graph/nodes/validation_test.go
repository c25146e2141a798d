package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/experience-engine/server/internal/workflow/model"
)

func TestDecideValidation(t *testing.T) {
	tests := []struct {
		name        string
		report      *model.ValidationReport
		attempts    int
		maxAttempts int
		want        ValidationDecision
	}{
		{
			name:   "complete report passes",
			report: &model.ValidationReport{HasDestination: true, IsValidated: true},
			want:   ValidationDecision{Validated: true, Attempts: 1, Next: model.NextClassification},
		},
		{
			name:        "complete report passes regardless of cap",
			report:      &model.ValidationReport{HasDestination: true, IsValidated: true},
			attempts:    3,
			maxAttempts: 3,
			want:        ValidationDecision{Validated: true, Attempts: 4, Next: model.NextClassification},
		},
		{
			name:   "destination without activity at cap zero is best effort",
			report: &model.ValidationReport{HasDestination: true, IsValidated: false},
			want:   ValidationDecision{Validated: true, Attempts: 1, Next: model.NextClassification},
		},
		{
			name:   "no destination at cap zero terminates",
			report: &model.ValidationReport{HasDestination: false},
			want:   ValidationDecision{Validated: false, Attempts: 1, FailedReason: "no destination found", Next: model.NextEnd},
		},
		{
			name:        "below cap requests another extraction pass",
			report:      &model.ValidationReport{HasDestination: false, ValidationPrompt: "Focus on where the trip happens.", FailedReason: "no destination"},
			attempts:    0,
			maxAttempts: 2,
			want: ValidationDecision{
				Validated:    false,
				Attempts:     1,
				Prompt:       "Focus on where the trip happens.",
				FailedReason: "no destination",
				Next:         model.NextExtraction,
			},
		},
		{
			name:        "at cap with destination falls through",
			report:      &model.ValidationReport{HasDestination: true, IsValidated: false},
			attempts:    2,
			maxAttempts: 2,
			want:        ValidationDecision{Validated: true, Attempts: 3, Next: model.NextClassification},
		},
		{
			name:        "at cap without destination terminates",
			report:      &model.ValidationReport{HasDestination: false},
			attempts:    2,
			maxAttempts: 2,
			want:        ValidationDecision{Validated: false, Attempts: 3, FailedReason: "no destination found", Next: model.NextEnd},
		},
		{
			name: "nil report is a low-confidence record not a crash",
			want: ValidationDecision{Validated: false, Attempts: 1, FailedReason: "no destination found", Next: model.NextEnd},
		},
		{
			name:        "nil report below cap retries extraction",
			maxAttempts: 1,
			want:        ValidationDecision{Validated: false, Attempts: 1, FailedReason: "unable to parse validation response", Next: model.NextExtraction},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideValidation(tt.report, tt.attempts, tt.maxAttempts)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideValidationAlwaysIncrementsAttempts(t *testing.T) {
	for attempts := 0; attempts < 5; attempts++ {
		got := DecideValidation(nil, attempts, 10)
		assert.Equal(t, attempts+1, got.Attempts)
	}
}

func TestCheckCompletenessHonorsRepairBudget(t *testing.T) {
	reportJSON := `{"has_destination": true, "is_validated": true, "confidence": "high"}`

	t.Run("budget of two reaches the valid repair", func(t *testing.T) {
		gw := &fakeInvoker{responses: []string{"not json (((", "still not json (((", reportJSON}}

		report := checkCompleteness(context.Background(), gw, "Paris itinerary", "s1", 2)
		require.NotNil(t, report)
		assert.True(t, report.HasDestination)
		assert.Equal(t, 3, gw.calls)
	})

	t.Run("budget of one exhausts before the valid repair", func(t *testing.T) {
		gw := &fakeInvoker{responses: []string{"not json (((", "still not json (((", reportJSON}}

		report := checkCompleteness(context.Background(), gw, "Paris itinerary", "s1", 1)
		assert.Nil(t, report)
		assert.Equal(t, 2, gw.calls)
	})
}
