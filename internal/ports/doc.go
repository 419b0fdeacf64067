// Package ports defines the narrow interfaces the registry core is
// consumed and composed through.
//
// The facade in internal/application/registry depends only on these
// contracts; adapters under pkg/adapters provide the concrete
// implementations (in-memory and Redis backed).
package ports
