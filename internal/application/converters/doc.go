// Package converters implements the converter graph: the registered
// conversion capabilities, the reachability closure over them, and the
// lazy step-by-step conversion chain.
//
// The registry treats converters as edges of a directed graph over
// mime types. Reachability and planning both run breadth-first, so a
// planned chain is always a shortest path from some source mime type.
package converters
