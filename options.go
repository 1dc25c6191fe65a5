package ringqueue

import "github.com/timzifer/ringqueue/internal/telemetry"

// AllocKind identifies which block an allocation is for.
type AllocKind int

const (
	AllocHead AllocKind = iota
	AllocElement
	AllocValue
)

func (k AllocKind) String() string {
	switch k {
	case AllocHead:
		return "head"
	case AllocElement:
		return "element"
	case AllocValue:
		return "value"
	default:
		return "unknown"
	}
}

// Options holds the allocation settings shared by a queue and its elements.
type Options struct {
	// Metrics receives one record per block allocated or released.
	Metrics *telemetry.AllocMetrics
	// Fail, when set, is consulted before every allocation. Returning true
	// makes that allocation fail.
	Fail    func(AllocKind) bool
}

// Option configures a queue created by New.
type Option func(*Options)

// WithMetrics routes allocation accounting to m instead of the process-wide
// counters.
func WithMetrics(m *telemetry.AllocMetrics) Option {
	return func(opts *Options) {
		if m != nil {
			opts.Metrics = m
		}
	}
}

// WithFaults installs an allocation fault hook.
func WithFaults(fail func(AllocKind) bool) Option {
	return func(opts *Options) {
		opts.Fail = fail
	}
}

// WithOptions replaces the whole option set.
func WithOptions(o Options) Option {
	return func(opts *Options) {
		*opts = o
		if opts.Metrics == nil {
			opts.Metrics = telemetry.DefaultAllocMetrics()
		}
	}
}

func defaultOptions() Options {
	return Options{
		Metrics: telemetry.DefaultAllocMetrics(),
	}
}
