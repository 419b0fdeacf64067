// Package registry implements the orchestration facade over the
// dataset store and the converter graph.
//
// The manager exposes the registry operations:
//   - Registering a URL (resolve, dedup, publish)
//   - Reachability queries (pure, no mutation)
//   - Driving lazy conversion chains with publish-as-you-go semantics
//
// Collaborators are injected through the ports interfaces; the facade
// performs no retries and adds no caching of its own.
package registry
