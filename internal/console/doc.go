// Package console implements a line-oriented command interpreter over a chain
// of ringqueue contexts. Each command runs one queue operation, prints the
// resulting queue and records the attempt in the telemetry package.
//
// Allocation faults can be injected at a configurable rate so that scripts
// exercise the failure paths of the queue. Close reports any storage that is
// still allocated once every queue is freed.
package console
