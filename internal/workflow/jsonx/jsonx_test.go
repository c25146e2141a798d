package jsonx

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/experience-engine/server/internal/core/error"
)

// scriptedInvoker replays a fixed sequence of responses.
type scriptedInvoker struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedInvoker) Invoke(ctx context.Context, msgs []*schema.Message, sessionID string) (*schema.Message, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.responses) {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.AssistantMessage(s.responses[i], nil), nil
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestValidate(t *testing.T) {
	raw, err := Validate("```json\n{\"city\": \"Paris\"}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Paris"}`, string(raw))

	_, err = Validate("not json at all {{{")
	assert.Error(t, err)

	_, err = Validate("")
	assert.Error(t, err)
}

func TestRepairLocal(t *testing.T) {
	// trailing comma and single quotes are fixable without a model call
	raw, err := Repair(`{'city': 'Paris', 'days': 3,}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Paris","days":3}`, string(raw))

	// unclosed bracket
	raw, err = Repair(`{"plan": [{"day": "1"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan":[{"day":"1"}]}`, string(raw))
}

func TestRepairRejectsProse(t *testing.T) {
	// arbitrary prose must not be stringified into a JSON scalar; it stays
	// malformed so the model-repair loop can take over
	_, err := Repair("broken ((( input")
	assert.Error(t, err)

	_, err = Repair("here is your itinerary, enjoy")
	assert.Error(t, err)
}

func TestDecodeSchemaMismatch(t *testing.T) {
	type target struct {
		Days int `json:"days"`
	}
	// valid JSON, but wrong shape for the target
	_, err := Decode[target](`{"days": "three"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrSchemaMismatch)

	out, err := Decode[target](`{"days": 3}`)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Days)
}

func TestRepairWithModelConverges(t *testing.T) {
	inv := &scriptedInvoker{responses: []string{
		"still not json (((",
		`{"city": "Paris"}`,
	}}

	raw, err := RepairWithModel(context.Background(), inv, "broken ((( input", "s1", 3)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Paris"}`, string(raw))
	assert.Equal(t, 2, inv.calls)
}

func TestRepairWithModelExhausted(t *testing.T) {
	inv := &scriptedInvoker{responses: []string{
		"garbage one (((",
		"garbage two (((",
	}}

	_, err := RepairWithModel(context.Background(), inv, "broken ((( input", "s1", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrRepairExhausted)
	assert.Equal(t, 2, inv.calls)
}

func TestRepairWithModelSkipsWhenAlreadyValid(t *testing.T) {
	inv := &scriptedInvoker{}

	raw, err := RepairWithModel(context.Background(), inv, `{"ok": true}`, "s1", 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Zero(t, inv.calls, "no model call for an already-valid payload")
}

func TestRepairWithModelToleratesInvokeErrors(t *testing.T) {
	inv := &scriptedInvoker{
		errs:      []error{errors.New("transient"), nil},
		responses: []string{"", `{"city": "Paris"}`},
	}

	raw, err := RepairWithModel(context.Background(), inv, "broken ((( input", "s1", 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Paris"}`, string(raw))
}
