package ringqueue

import "github.com/timzifer/ringqueue/internal/ring"

// Context pairs a queue with a cached element count. It is the unit of input to
// Merge and does not own the queue.
type Context struct {
	Queue *Queue
	// Size is trusted by Merge and never recounted.
	Size  int
	ID    int
}

// NewContext wraps q with its current size.
func NewContext(q *Queue, id int) *Context {
	return &Context{Queue: q, Size: q.Size(), ID: id}
}

// Merge moves the elements of every context's queue onto the queue of the first
// live context and sorts the result. It returns the sum of the cached sizes of
// the merged contexts. The drained contexts are left with empty queues and a
// Size of 0; the target's Size becomes the total.
//
// Contexts that are nil, whose queue is absent, or whose queue already appeared
// earlier in the list are skipped. An input without any live context returns 0
// and changes nothing.
func Merge(contexts []*Context, descend bool) int {
	var target *Context
	seen := make(map[*Queue]struct{}, len(contexts))
	total := 0

	for _, c := range contexts {
		if c == nil || !c.Queue.live() {
			continue
		}
		if _, dup := seen[c.Queue]; dup {
			continue
		}
		seen[c.Queue] = struct{}{}
		total += c.Size

		if target == nil {
			target = c
			continue
		}
		ring.Splice(&target.Queue.head, &c.Queue.head)
		c.Size = 0
	}

	if target == nil {
		return 0
	}

	target.Queue.Sort(descend)
	target.Size = total
	return total
}
