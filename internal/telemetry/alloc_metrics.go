package telemetry

import "sync/atomic"

// AllocMetrics counts the storage blocks handed out to queues. A queue sentinel,
// an element and an element's value each count as one block.
type AllocMetrics struct {
	allocated atomic.Uint64
	released  atomic.Uint64
	failures  atomic.Uint64
	liveBytes atomic.Int64
}

var defaultAllocMetrics AllocMetrics

// DefaultAllocMetrics returns the process-wide allocation counters.
func DefaultAllocMetrics() *AllocMetrics {
	return &defaultAllocMetrics
}

// RecordAlloc notes one block of size bytes.
func (m *AllocMetrics) RecordAlloc(size int) {
	m.allocated.Add(1)
	m.liveBytes.Add(int64(size))
}

// RecordRelease notes that a block of size bytes was given back.
func (m *AllocMetrics) RecordRelease(size int) {
	m.released.Add(1)
	m.liveBytes.Add(-int64(size))
}

// RecordFailure zählt eine fehlgeschlagene Allokation.
func (m *AllocMetrics) RecordFailure() {
	m.failures.Add(1)
}

// Outstanding returns the number of blocks allocated but not yet released.
func (m *AllocMetrics) Outstanding() int64 {
	return int64(m.allocated.Load()) - int64(m.released.Load())
}

// Snapshot returns the collected values.
func (m *AllocMetrics) Snapshot() (allocated, released, failures uint64, liveBytes int64) {
	return m.allocated.Load(), m.released.Load(), m.failures.Load(), m.liveBytes.Load()
}

// Reset setzt alle Zähler zurück.
func (m *AllocMetrics) Reset() {
	m.allocated.Store(0)
	m.released.Store(0)
	m.failures.Store(0)
	m.liveBytes.Store(0)
}
