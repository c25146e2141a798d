package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/experience-engine/server/internal/workflow/model"
)

func TestClassifyText(t *testing.T) {
	t.Run("managed with reason", func(t *testing.T) {
		inv := &fakeInvoker{responses: []string{
			`{"classification_type": "MANAGED", "confidence": "high", "reason": "named operator with fixed pricing"}`,
		}}
		ctype, reason := classifyText(context.Background(), inv, "a tour document", "s1", 1)
		assert.Equal(t, model.ClassificationManaged, ctype)
		assert.Equal(t, "named operator with fixed pricing", reason)
	})

	t.Run("case insensitive type", func(t *testing.T) {
		inv := &fakeInvoker{responses: []string{`{"classification_type": "managed", "reason": "ok"}`}}
		ctype, _ := classifyText(context.Background(), inv, "a tour document", "s1", 1)
		assert.Equal(t, model.ClassificationManaged, ctype)
	})

	t.Run("unknown type defaults to unmanaged", func(t *testing.T) {
		inv := &fakeInvoker{responses: []string{`{"classification_type": "PARTIAL", "reason": "unsure"}`}}
		ctype, reason := classifyText(context.Background(), inv, "a tour document", "s1", 1)
		assert.Equal(t, model.ClassificationUnmanaged, ctype)
		assert.Equal(t, "unsure", reason)
	})

	t.Run("empty reason gets the fallback reason", func(t *testing.T) {
		inv := &fakeInvoker{responses: []string{`{"classification_type": "UNMANAGED", "reason": "  "}`}}
		_, reason := classifyText(context.Background(), inv, "a tour document", "s1", 1)
		assert.Equal(t, classificationFallbackReason, reason)
	})

	t.Run("unparseable response never aborts", func(t *testing.T) {
		inv := &fakeInvoker{responses: []string{"I think this looks managed (((", "still not json ((("}}
		ctype, reason := classifyText(context.Background(), inv, "a tour document", "s1", 1)
		assert.Equal(t, model.ClassificationUnmanaged, ctype)
		assert.Equal(t, classificationFallbackReason, reason)
	})

	t.Run("transport failure never aborts", func(t *testing.T) {
		boom := errors.New("rate limited")
		inv := &fakeInvoker{errs: []error{boom, boom, boom}}
		ctype, reason := classifyText(context.Background(), inv, "a tour document", "s1", 1)
		assert.Equal(t, model.ClassificationUnmanaged, ctype)
		assert.Equal(t, classificationFallbackReason, reason)
	})
}
