package ringqueue

import (
	"bytes"

	"github.com/timzifer/ringqueue/internal/ring"
)

// Element is a queue entry. It owns a private copy of the inserted bytes.
//
// While linked, an Element belongs to its queue. Once returned by RemoveHead or
// RemoveTail it belongs to the caller, who must Release it.
type Element struct {
	Value []byte

	link     ring.Link[*Element]
	opts     *Options
	size     int
	released bool
}

func (o *Options) acquire(kind AllocKind, size int) bool {
	if o.Fail != nil && o.Fail(kind) {
		o.Metrics.RecordFailure()
		return false
	}
	o.Metrics.RecordAlloc(size)
	return true
}

func (o *Options) release(size int) {
	o.Metrics.RecordRelease(size)
}

// newElement allocates an element holding a copy of value. It returns nil when
// either block cannot be obtained; nothing stays allocated in that case.
func newElement(opts *Options, value []byte) *Element {
	if !opts.acquire(AllocElement, 0) {
		return nil
	}
	if !opts.acquire(AllocValue, len(value)) {
		opts.release(0)
		return nil
	}

	e := &Element{
		Value: bytes.Clone(value),
		opts:  opts,
		size:  len(value),
	}
	e.link.Init(e)
	return e
}

func (e *Element) String() string {
	if e == nil {
		return ""
	}
	return string(e.Value)
}

// Release gives the element's storage back. An element that is still linked is
// unlinked first. Releasing twice, or releasing nil, does nothing.
func (e *Element) Release() {
	if e == nil || e.released {
		return
	}
	if e.link.Linked() {
		e.link.Remove()
	}

	e.released = true
	e.Value = nil
	if e.opts != nil {
		e.opts.release(e.size)
		e.opts.release(0)
	}
}
