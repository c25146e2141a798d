package model

import (
	"context"
	"sync"
)

// CostMeter accumulates USD cost across all model calls of one run. The two
// fan-out branches invoke models concurrently, so Add is mutex-guarded.
type CostMeter struct {
	mu    sync.Mutex
	total float64
}

func (m *CostMeter) Add(usd float64) {
	m.mu.Lock()
	m.total += usd
	m.mu.Unlock()
}

func (m *CostMeter) Total() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

type meterKey struct{}

// WithCostMeter attaches a per-run cost meter to the context.
func WithCostMeter(ctx context.Context, m *CostMeter) context.Context {
	return context.WithValue(ctx, meterKey{}, m)
}

// MeterFrom returns the run's cost meter, or nil when none is attached.
func MeterFrom(ctx context.Context) *CostMeter {
	m, _ := ctx.Value(meterKey{}).(*CostMeter)
	return m
}
