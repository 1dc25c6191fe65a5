package ringqueue

import (
	"slices"
	"sync"
	"testing"

	"github.com/timzifer/ringqueue/internal/telemetry"
)

var testMetrics sync.Map

// metricsFor returns allocation counters shared by every queue of one test and
// fails the test if any block is still outstanding once all cleanups ran.
func metricsFor(t *testing.T) *telemetry.AllocMetrics {
	t.Helper()

	if m, ok := testMetrics.Load(t); ok {
		return m.(*telemetry.AllocMetrics)
	}

	metrics := &telemetry.AllocMetrics{}
	testMetrics.Store(t, metrics)
	t.Cleanup(func() {
		testMetrics.Delete(t)
		if n := metrics.Outstanding(); n != 0 {
			t.Errorf("expected no outstanding blocks after Free, got %d", n)
		}
	})
	return metrics
}

// newTestQueue builds a queue on the test's counters and frees it on cleanup.
func newTestQueue(t *testing.T, values ...string) (*Queue, *telemetry.AllocMetrics) {
	t.Helper()

	metrics := metricsFor(t)
	q := New(WithMetrics(metrics))
	if q == nil {
		t.Fatalf("New returned nil without fault injection")
	}
	for _, v := range values {
		if !q.InsertTail([]byte(v)) {
			t.Fatalf("InsertTail(%q) failed", v)
		}
	}

	t.Cleanup(q.Free)
	return q, metrics
}

func strs(t *testing.T, q *Queue) []string {
	t.Helper()

	if err := q.Verify(); err != nil {
		t.Fatalf("queue invariant violated: %v", err)
	}

	var out []string
	for _, v := range q.Values() {
		out = append(out, string(v))
	}
	if len(out) != q.Size() {
		t.Fatalf("Values returned %d entries but Size is %d", len(out), q.Size())
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkStrings reports a mismatch between want and got without stopping the test.
func checkStrings(t *testing.T, want, got []string) {
	t.Helper()

	if !slices.Equal(want, got) {
		t.Errorf("expected %q, got %q", want, got)
	}
}
