package ring

import (
	"errors"
	"fmt"
)

// ErrBroken is returned by Verify when a ring violates the neighbour invariant.
var ErrBroken = errors.New("ring: broken link")

// Link is a node of a circular doubly-linked ring. The owner handle points back
// at the value the link is embedded in; sentinels carry the zero owner.
type Link[T any] struct {
	next  *Link[T]
	prev  *Link[T]
	owner T
}

// Init makes l a ring of one and records its owner.
func (l *Link[T]) Init(owner T) *Link[T] {
	l.next = l
	l.prev = l
	l.owner = owner
	return l
}

// Next returns the node after l, or nil when l is not linked.
func (l *Link[T]) Next() *Link[T] { return l.next }

// Prev returns the node before l, or nil when l is not linked.
func (l *Link[T]) Prev() *Link[T] { return l.prev }

// Owner returns the value l is embedded in.
func (l *Link[T]) Owner() T { return l.owner }

// Empty reports whether l, used as a sentinel, has no other nodes.
func (l *Link[T]) Empty() bool {
	return l.next == l
}

// Singular reports whether the ring headed by l has exactly one node.
func (l *Link[T]) Singular() bool {
	return l.next != l && l.next == l.prev
}

// Linked reports whether l currently sits in a ring.
func (l *Link[T]) Linked() bool {
	return l.next != nil
}

func link[T any](n, prev, next *Link[T]) {
	next.prev = n
	n.next = next
	n.prev = prev
	prev.next = n
}

// InsertAfter splices l into anchor's ring directly after anchor.
func (l *Link[T]) InsertAfter(anchor *Link[T]) {
	link(l, anchor, anchor.next)
}

// InsertBefore splices l into anchor's ring directly before anchor. Inserting
// before a sentinel appends to the tail.
func (l *Link[T]) InsertBefore(anchor *Link[T]) {
	link(l, anchor.prev, anchor)
}

// Remove unlinks l from its ring. The neighbours become adjacent and l's own
// pointers are cleared, so a removed link can no longer be walked.
func (l *Link[T]) Remove() {
	l.prev.next = l.next
	l.next.prev = l.prev
	l.next = nil
	l.prev = nil
}

// SpliceBefore moves every node of the ring headed by src so that the run sits
// directly before anchor, preserving order. src is left empty.
func SpliceBefore[T any](anchor, src *Link[T]) {
	if src.Empty() {
		return
	}

	first := src.next
	last := src.prev
	prev := anchor.prev

	prev.next = first
	first.prev = prev
	last.next = anchor
	anchor.prev = last

	src.next = src
	src.prev = src
}

// Splice appends every node of src to the tail of dst in O(1) and leaves src
// empty.
func Splice[T any](dst, src *Link[T]) {
	SpliceBefore(dst, src)
}

// CutAt moves the prefix of src up to and including boundary into dst, which is
// re-initialised first. The remainder stays in src. A boundary equal to src
// moves nothing.
func CutAt[T any](dst, src, boundary *Link[T]) {
	var zero T
	dst.Init(zero)
	if src.Empty() || boundary == src {
		return
	}

	first := src.next
	rest := boundary.next

	dst.next = first
	first.prev = dst
	dst.prev = boundary
	boundary.next = dst

	src.next = rest
	rest.prev = src
}

// Reverse flips the order of the ring headed by head by exchanging next and
// prev on every node, the sentinel included.
func Reverse[T any](head *Link[T]) {
	if head.Empty() {
		return
	}

	node := head
	for {
		next := node.next
		node.next, node.prev = node.prev, node.next
		node = next
		if node == head {
			return
		}
	}
}

// Len counts the nodes of the ring headed by head, excluding the sentinel.
func Len[T any](head *Link[T]) int {
	n := 0
	for node := head.next; node != head; node = node.next {
		n++
	}
	return n
}

// Verify walks the ring headed by head and checks that every node is linked
// back by both neighbours. It gives up after limit nodes to detect a ring that
// never returns to its sentinel; a non-positive limit disables the bound.
func Verify[T any](head *Link[T], limit int) error {
	if head.next == nil || head.prev == nil {
		return fmt.Errorf("%w: sentinel is not initialised", ErrBroken)
	}

	node := head
	for i := 0; ; i++ {
		next := node.next
		if next == nil {
			return fmt.Errorf("%w: nil next at position %d", ErrBroken, i)
		}
		if next.prev != node {
			return fmt.Errorf("%w: next.prev mismatch at position %d", ErrBroken, i)
		}
		if node.prev == nil || node.prev.next != node {
			return fmt.Errorf("%w: prev.next mismatch at position %d", ErrBroken, i)
		}
		node = next
		if node == head {
			return nil
		}
		if limit > 0 && i >= limit {
			return fmt.Errorf("%w: ring does not return to its sentinel within %d nodes", ErrBroken, limit)
		}
	}
}
