package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	errx "github.com/experience-engine/server/internal/core/error"
	"github.com/experience-engine/server/internal/workflow/gateway"
	"github.com/experience-engine/server/internal/workflow/graph/prompts"
	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

// ValidationDecision is the outcome of one validation pass.
type ValidationDecision struct {
	Validated    bool
	Attempts     int
	Prompt       string
	FailedReason string
	Next         string
}

// DecideValidation applies the validation decision table to a completeness
// report. validated requires both flags; at or over the attempt cap the run
// falls through to classification best-effort unless the destination is
// entirely absent, in which case the run terminates. Below the cap, another
// extraction pass is requested with the model's suggested follow-up prompt.
// The attempt counter increments strictly every pass, so any loop built on
// this decision terminates.
func DecideValidation(report *model.ValidationReport, attempts, maxAttempts int) ValidationDecision {
	if report == nil {
		// Parse failure: low-confidence record, never a hard error here.
		report = &model.ValidationReport{FailedReason: "unable to parse validation response"}
	}

	if report.HasDestination && report.IsValidated {
		return ValidationDecision{
			Validated: true,
			Attempts:  attempts + 1,
			Next:      model.NextClassification,
		}
	}

	if attempts >= maxAttempts {
		if report.HasDestination {
			return ValidationDecision{
				Validated: true,
				Attempts:  attempts + 1,
				Next:      model.NextClassification,
			}
		}
		return ValidationDecision{
			Validated:    false,
			Attempts:     attempts + 1,
			FailedReason: "no destination found",
			Next:         model.NextEnd,
		}
	}

	return ValidationDecision{
		Validated:    false,
		Attempts:     attempts + 1,
		Prompt:       report.ValidationPrompt,
		FailedReason: report.FailedReason,
		Next:         model.NextExtraction,
	}
}

// NewValidationNode creates the validation node. It judges whether the
// extracted narrative names a destination and at least one concrete
// activity, then applies the decision table. In the wired graph the node is
// a pass-through: with the attempt cap at its default of zero it either
// falls through to classification or terminates the run.
func NewValidationNode(gw gateway.Invoker, maxAttempts, repairAttempts int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, extractedText string) (string, error) {
		var sessionID string
		var attempts int
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			sessionID = s.SessionID
			attempts = s.ValidationAttempts
			return nil
		}); err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		report := checkCompleteness(ctx, gw, extractedText, sessionID, repairAttempts)
		decision := DecideValidation(report, attempts, maxAttempts)

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.WorkflowState) error {
			s.Validated = decision.Validated
			s.ValidationAttempts = decision.Attempts
			s.ValidationPrompt = decision.Prompt
			s.FailedReason = decision.FailedReason
			s.Next = decision.Next
			return nil
		}); err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().
			Str("session_id", sessionID).
			Str("node", NodeValidation).
			Bool("validated", decision.Validated).
			Int("attempts", decision.Attempts).
			Str("next", decision.Next).
			Msg("Validation decision")

		if decision.Next == model.NextEnd {
			return "", errx.ClientFault(errx.ErrNoDestination, "input does not name a destination")
		}
		return extractedText, nil
	})
}

// checkCompleteness asks the model whether the narrative has a destination
// and a concrete activity. A parse failure returns nil so the decision table
// treats it as a low-confidence report instead of aborting.
func checkCompleteness(ctx context.Context, gw gateway.Invoker, extractedText, sessionID string, repairAttempts int) *model.ValidationReport {
	prompt, err := prompts.RenderValidation(ctx, extractedText)
	if err != nil {
		logx.Error().Str("session_id", sessionID).Err(err).Msg("Render validation prompt failed")
		return nil
	}
	report, err := gateway.StructuredInvoke[model.ValidationReport](ctx, gw,
		[]*schema.Message{schema.UserMessage(prompt)}, sessionID, repairAttempts)
	if err != nil {
		logx.Warn().Str("session_id", sessionID).Err(err).Msg("Validation response unusable")
		return nil
	}
	return report
}
