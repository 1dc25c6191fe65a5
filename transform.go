package ringqueue

import (
	"bytes"

	"github.com/timzifer/ringqueue/internal/ring"
)

func valueOf(node *ring.Link[*Element]) []byte {
	return node.Owner().Value
}

// DeleteMid releases the middle element, the one at index n/2. For an even
// count that is the later of the two middles. It reports false for an absent or
// empty queue.
func (q *Queue) DeleteMid() bool {
	if !q.live() || q.head.Empty() {
		return false
	}

	head := &q.head
	fast, slow := head.Next(), head.Next()
	for fast != head && fast.Next() != head {
		fast = fast.Next().Next()
		slow = slow.Next()
	}

	slow.Owner().Release()
	return true
}

// DeleteDup releases every run of two or more adjacent equal values, first
// occurrence included, so only values that were unique in their neighbourhood
// survive. On a sorted queue this leaves the values that occurred once. It
// reports false only for an absent queue.
func (q *Queue) DeleteDup() bool {
	if !q.live() {
		return false
	}

	head := &q.head
	for cur := head.Next(); cur != head; {
		next := cur.Next()
		if next == head || !bytes.Equal(valueOf(cur), valueOf(next)) {
			cur = next
			continue
		}

		for next != head && bytes.Equal(valueOf(cur), valueOf(next)) {
			dup := next
			next = next.Next()
			dup.Owner().Release()
		}
		cur.Owner().Release()
		cur = next
	}
	return true
}

// Swap exchanges every two adjacent elements. With an odd count the last
// element stays where it is.
func (q *Queue) Swap() {
	if !q.live() {
		return
	}

	head := &q.head
	for cur := head.Next(); cur != head && cur.Next() != head; cur = cur.Next() {
		second := cur.Next()
		second.Remove()
		second.InsertBefore(cur)
	}
}

// Reverse reverses the queue in place.
func (q *Queue) Reverse() {
	if !q.live() {
		return
	}
	ring.Reverse(&q.head)
}

// ReverseK reverses the queue in consecutive groups of k elements. A trailing
// group shorter than k keeps its order. Nothing happens when k <= 1 or the
// queue holds fewer than k elements.
func (q *Queue) ReverseK(k int) {
	if !q.live() || k <= 1 {
		return
	}
	n := q.Size()
	if n < k {
		return
	}

	head := &q.head
	node := head.Next()
	for ; n >= k; n -= k {
		var group ring.Link[*Element]
		group.Init(nil)

		for i := 0; i < k; i++ {
			next := node.Next()
			node.Remove()
			node.InsertAfter(&group)
			node = next
		}
		ring.SpliceBefore(node, &group)
	}
}

// Ascend releases every element that has a strictly smaller value somewhere to
// its right and returns the number of elements left.
func (q *Queue) Ascend() int {
	return q.prune(func(cmp int) bool { return cmp > 0 })
}

// Descend releases every element that has a strictly greater value somewhere
// to its right and returns the number of elements left.
func (q *Queue) Descend() int {
	return q.prune(func(cmp int) bool { return cmp < 0 })
}

// prune walks from tail to head keeping the running extreme of everything kept
// so far. drop receives the comparison of a node against that extreme.
func (q *Queue) prune(drop func(cmp int) bool) int {
	if !q.live() || q.head.Empty() {
		return 0
	}

	head := &q.head
	tail := head.Prev()
	extreme := valueOf(tail)
	for node := tail.Prev(); node != head; {
		prev := node.Prev()
		if drop(bytes.Compare(valueOf(node), extreme)) {
			node.Owner().Release()
		} else {
			extreme = valueOf(node)
		}
		node = prev
	}
	return q.Size()
}
