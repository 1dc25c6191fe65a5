package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// OpMetrics fasst Messwerte zu Queue-Operationen zusammen.
type OpMetrics struct {
	totalDuration atomic.Int64
	attempts      atomic.Uint64
	failures      atomic.Uint64

	mu    sync.Mutex
	perOp map[string]uint64
}

var defaultOpMetrics OpMetrics

// DefaultOpMetrics liefert die globalen Metriken.
func DefaultOpMetrics() *OpMetrics {
	return &defaultOpMetrics
}

type opNameKey struct{}

// OpName returns the operation name recorded by TraceOp, if any.
func OpName(ctx context.Context) string {
	name, _ := ctx.Value(opNameKey{}).(string)
	return name
}

// TraceOp startet einen Span für die Operation name und liefert eine
// Abschlussfunktion, die Dauer und Fehlerzustand meldet.
func TraceOp(ctx context.Context, name string) (context.Context, func(error)) {
	return defaultOpMetrics.Trace(ctx, name)
}

// Trace records one attempt of name against m.
func (m *OpMetrics) Trace(ctx context.Context, name string) (context.Context, func(error)) {
	start := time.Now()
	m.attempts.Add(1)

	m.mu.Lock()
	if m.perOp == nil {
		m.perOp = make(map[string]uint64)
	}
	m.perOp[name]++
	m.mu.Unlock()

	return context.WithValue(ctx, opNameKey{}, name), func(err error) {
		elapsed := time.Since(start)
		m.totalDuration.Add(elapsed.Nanoseconds())
		if err != nil {
			m.failures.Add(1)
		}
	}
}

// Snapshot gibt die gesammelten Werte zurück.
func (m *OpMetrics) Snapshot() (attempts uint64, failures uint64, average time.Duration) {
	attempts = m.attempts.Load()
	failures = m.failures.Load()
	total := m.totalDuration.Load()
	if attempts == 0 {
		return attempts, failures, 0
	}
	average = time.Duration(total / int64(attempts))
	return attempts, failures, average
}

// Count returns how often name has been traced.
func (m *OpMetrics) Count(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perOp[name]
}

// Reset setzt alle Zähler zurück.
func (m *OpMetrics) Reset() {
	m.totalDuration.Store(0)
	m.attempts.Store(0)
	m.failures.Store(0)

	m.mu.Lock()
	m.perOp = nil
	m.mu.Unlock()
}
