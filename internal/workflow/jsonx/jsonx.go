// Package jsonx bridges the gap between "model asked to return JSON" and
// "model actually returned JSON": code fences, commentary and truncation are
// stripped or repaired locally first, and only then is the model itself asked
// to fix its own output.
package jsonx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"

	errx "github.com/experience-engine/server/internal/core/error"
	logx "github.com/experience-engine/server/pkg/logger"
)

const maxPreviewLen = 500

// StripCodeFence removes a wrapping markdown fence (```json ... ```), keeping
// anything else untouched.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return s
	}
	s = parts[1]
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}

// Validate attempts to parse text as JSON after stripping common wrapping.
// It never panics; a malformed payload comes back as an error, not a crash.
func Validate(text string) (json.RawMessage, error) {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty content")
	}
	var probe any
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil, err
	}
	return json.RawMessage(cleaned), nil
}

// Repair tries a local mechanical repair (trailing commas, single quotes,
// unclosed brackets) before anyone spends a model call on it.
func Repair(text string) (json.RawMessage, error) {
	if raw, err := Validate(text); err == nil {
		return raw, nil
	}
	repaired, err := jsonrepair.JSONRepair(StripCodeFence(text))
	if err != nil {
		return nil, err
	}
	raw, err := Validate(repaired)
	if err != nil {
		return nil, err
	}
	// jsonrepair coerces arbitrary prose into a JSON string scalar. Only an
	// object or array counts as a repaired payload; anything else goes to
	// the model-repair loop.
	if !isStructured(raw) {
		return nil, fmt.Errorf("repaired text is not a JSON object or array")
	}
	return raw, nil
}

func isStructured(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// Decode parses text into T, going through Validate and the local repair
// pass. A payload that parses as JSON but does not fit T is a schema
// mismatch, distinct from a malformed payload.
func Decode[T any](text string) (*T, error) {
	raw, err := Repair(text)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", errx.ErrSchemaMismatch, err)
	}
	return &out, nil
}

// Invoker is the minimal gateway surface the model-repair loop needs.
type Invoker interface {
	Invoke(ctx context.Context, msgs []*schema.Message, sessionID string) (*schema.Message, error)
}

// RepairWithModel asks the model to repair its own malformed output, feeding
// each still-bad repair attempt back in as input to the next one, bounded by
// maxAttempts. On exhaustion the failure is tagged with ErrRepairExhausted so
// callers can substitute their structural fallback.
func RepairWithModel(ctx context.Context, inv Invoker, rawText, sessionID string, maxAttempts int) (json.RawMessage, error) {
	if raw, err := Repair(rawText); err == nil {
		return raw, nil
	}
	if maxAttempts <= 0 {
		maxAttempts = 2
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt := "The model returned the following text that is supposed to be valid JSON.\n" +
			"Please return a corrected JSON object only (no wrapper text, no markdown fences).\n\n" +
			"Response:\n" + rawText

		logx.Debug().
			Str("session_id", sessionID).
			Int("attempt", attempt).
			Msg("JSON repair attempt")

		resp, err := inv.Invoke(ctx, []*schema.Message{schema.UserMessage(prompt)}, sessionID)
		if err != nil {
			logx.Error().
				Str("session_id", sessionID).
				Int("attempt", attempt).
				Err(err).
				Msg("JSON repair invoke failed")
			continue
		}
		content := ""
		if resp != nil {
			content = resp.Content
		}
		if strings.TrimSpace(content) == "" {
			logx.Warn().
				Str("session_id", sessionID).
				Int("attempt", attempt).
				Msg("JSON repair returned no content")
			continue
		}
		if raw, err := Repair(content); err == nil {
			logx.Debug().
				Str("session_id", sessionID).
				Int("attempt", attempt).
				Msg("JSON repair succeeded")
			return raw, nil
		}
		logx.Warn().
			Str("session_id", sessionID).
			Int("attempt", attempt).
			Str("preview", preview(content)).
			Msg("JSON repair attempt still malformed")
		rawText = content
	}

	return nil, fmt.Errorf("%w after %d attempts", errx.ErrRepairExhausted, maxAttempts)
}

func preview(s string) string {
	if len(s) > maxPreviewLen {
		return s[:maxPreviewLen]
	}
	return s
}
