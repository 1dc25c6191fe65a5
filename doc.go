// Package ringqueue provides a queue of owned byte strings kept on a circular
// doubly-linked ring with a sentinel head.
//
// Besides insertion and removal at both ends the queue supports in-place
// sequence transforms: reversal, reversal in groups of k, pairwise swap,
// deletion of the middle element, removal of adjacent duplicate runs, monotonic
// filters and a merge sort. Merge combines several queues into one sorted queue.
// Every transform relinks existing elements and never copies values.
//
// Failures are reported through false, nil or zero results, never through
// panics. A nil queue, a freed queue and a failed allocation are all handled
// that way. Every block a queue hands out is counted by its allocation metrics,
// so callers can check that nothing leaked once all queues are freed.
//
// A Queue is not safe for concurrent use.
package ringqueue
