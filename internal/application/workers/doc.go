// Package workers implements the background conversion worker pool.
//
// The pool consumes asynchronous conversion requests from the event
// bus and drives the registry facade for each one; a health monitor
// reports pool liveness to the metrics collector.
package workers
