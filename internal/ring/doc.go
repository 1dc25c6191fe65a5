// Package ring provides an intrusive circular doubly-linked list.
//
// A ring is identified by a sentinel Link that never carries an owner. The ring
// is empty when the sentinel points at itself. Every other Link is embedded in
// exactly one owning value and belongs to at most one ring at a time.
//
// All splice and cut operations relink boundary pointers only, so moving a run
// of nodes between rings is O(1) regardless of its length.
//
// Rings are not safe for concurrent use. Callers that share a ring between
// goroutines must serialise access themselves.
package ring
