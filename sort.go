package ringqueue

import (
	"bytes"

	"github.com/timzifer/ringqueue/internal/ring"
)

// Sort orders the queue by byte-wise comparison of values, ascending or
// descending. It is a merge sort on the ring itself and allocates no elements.
func (q *Queue) Sort(descend bool) {
	if !q.live() {
		return
	}
	mergeSort(&q.head, descend)
}

func mergeSort(head *ring.Link[*Element], descend bool) {
	if head.Empty() || head.Singular() {
		return
	}

	// slow stops after n/2 nodes.
	slow, fast := head, head
	for fast.Next() != head && fast.Next().Next() != head {
		slow = slow.Next()
		fast = fast.Next().Next()
	}

	var left, right ring.Link[*Element]
	ring.CutAt(&left, head, slow)
	right.Init(nil)
	ring.Splice(&right, head)

	mergeSort(&left, descend)
	mergeSort(&right, descend)
	mergeRings(head, &left, &right, descend)
}

// mergeRings moves the nodes of two sorted rings onto the tail of dst. On equal
// values the right ring's front is taken.
func mergeRings(dst, left, right *ring.Link[*Element], descend bool) {
	for !left.Empty() && !right.Empty() {
		l, r := left.Next(), right.Next()
		cmp := bytes.Compare(valueOf(l), valueOf(r))

		pick := r
		if (!descend && cmp < 0) || (descend && cmp > 0) {
			pick = l
		}
		pick.Remove()
		pick.InsertBefore(dst)
	}

	ring.Splice(dst, left)
	ring.Splice(dst, right)
}
