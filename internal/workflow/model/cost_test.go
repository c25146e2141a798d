package model

import (
	"context"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestComputeCost(t *testing.T) {
	p := ResolvePricing("gemini-2.5-flash")

	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 100_000}, p)
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 0.25, out, 1e-9)
	assert.InDelta(t, 0.55, total, 1e-9)

	in, out, total = ComputeCost(nil, p)
	assert.Zero(t, in)
	assert.Zero(t, out)
	assert.Zero(t, total)
}

func TestResolvePricingUnknownModelIsZero(t *testing.T) {
	p := ResolvePricing("not-a-real-model")
	assert.Zero(t, p.InputPerM)
	assert.Zero(t, p.OutputPerM)
}

func TestCostMeterConcurrentAdds(t *testing.T) {
	m := &CostMeter{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Add(0.01)
		}()
	}
	wg.Wait()
	assert.InDelta(t, 1.0, m.Total(), 1e-9)
}

func TestMeterContextRoundTrip(t *testing.T) {
	assert.Nil(t, MeterFrom(context.Background()))

	m := &CostMeter{}
	ctx := WithCostMeter(context.Background(), m)
	assert.Same(t, m, MeterFrom(ctx))
}

func TestSessionContextRoundTrip(t *testing.T) {
	assert.Empty(t, SessionIDFrom(context.Background()))

	ctx := WithSessionID(context.Background(), "s-123")
	assert.Equal(t, "s-123", SessionIDFrom(ctx))
}
