package ringqueue

import (
	"errors"
	"fmt"

	"github.com/timzifer/ringqueue/internal/ring"
)

// ErrNoQueue is returned by Verify for a nil or freed queue.
var ErrNoQueue = errors.New("ringqueue: no queue")

// Queue is a list of elements hanging off a sentinel link. Its size is not
// cached; Size walks the ring.
type Queue struct {
	head  ring.Link[*Element]
	opts  Options
	freed bool
}

// New creates an empty queue. It returns nil when the sentinel cannot be
// allocated.
func New(options ...Option) *Queue {
	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}

	if !opts.acquire(AllocHead, 0) {
		return nil
	}

	q := &Queue{opts: opts}
	q.head.Init(nil)
	return q
}

func (q *Queue) live() bool {
	return q != nil && !q.freed
}

// Free releases every element still in the queue and then the queue itself.
// It is safe on nil, empty and already freed queues. A freed queue behaves like
// an absent one.
func (q *Queue) Free() {
	if !q.live() {
		return
	}

	head := &q.head
	for node := head.Next(); node != head; {
		next := node.Next()
		node.Owner().Release()
		node = next
	}

	q.freed = true
	q.opts.release(0)
}

// InsertHead copies value and links it at the front of the queue. It fails for
// an absent queue, a nil value or when allocation fails.
func (q *Queue) InsertHead(value []byte) bool {
	if !q.live() || value == nil {
		return false
	}

	e := newElement(&q.opts, value)
	if e == nil {
		return false
	}
	e.link.InsertAfter(&q.head)
	return true
}

// InsertTail copies value and links it at the back of the queue.
func (q *Queue) InsertTail(value []byte) bool {
	if !q.live() || value == nil {
		return false
	}

	e := newElement(&q.opts, value)
	if e == nil {
		return false
	}
	e.link.InsertBefore(&q.head)
	return true
}

// RemoveHead unlinks the first element and hands it to the caller, who must
// Release it. When sp is non-empty the value is copied into it, truncated to
// len(sp)-1 bytes and followed by zero bytes. It returns nil when the queue is
// absent or empty.
func (q *Queue) RemoveHead(sp []byte) *Element {
	if !q.live() || q.head.Empty() {
		return nil
	}
	return detach(q.head.Next(), sp)
}

// RemoveTail unlinks the last element. See RemoveHead.
func (q *Queue) RemoveTail(sp []byte) *Element {
	if !q.live() || q.head.Empty() {
		return nil
	}
	return detach(q.head.Prev(), sp)
}

func detach(node *ring.Link[*Element], sp []byte) *Element {
	e := node.Owner()
	node.Remove()

	if len(sp) > 0 {
		n := copy(sp[:len(sp)-1], e.Value)
		clear(sp[n:])
	}
	return e
}

// Size counts the elements of the queue. It returns 0 for an absent queue.
func (q *Queue) Size() int {
	if !q.live() {
		return 0
	}
	return ring.Len(&q.head)
}

// Values returns a copy of the queue's values from head to tail.
func (q *Queue) Values() [][]byte {
	if !q.live() || q.head.Empty() {
		return nil
	}

	head := &q.head
	result := make([][]byte, 0, ring.Len(head))
	for node := head.Next(); node != head; node = node.Next() {
		result = append(result, append([]byte(nil), node.Owner().Value...))
	}
	return result
}

// Verify checks that every link of the queue is consistent with its neighbours
// and that every linked element is still owned by the queue.
func (q *Queue) Verify() error {
	if !q.live() {
		return ErrNoQueue
	}
	if err := ring.Verify(&q.head, 0); err != nil {
		return err
	}

	head := &q.head
	i := 0
	for node := head.Next(); node != head; node = node.Next() {
		e := node.Owner()
		switch {
		case e == nil:
			return fmt.Errorf("%w: position %d has no element", ring.ErrBroken, i)
		case &e.link != node:
			return fmt.Errorf("%w: position %d is owned by a foreign link", ring.ErrBroken, i)
		case e.released:
			return fmt.Errorf("%w: position %d holds a released element", ring.ErrBroken, i)
		}
		i++
	}
	return nil
}
