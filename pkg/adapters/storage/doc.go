// Package storage provides dataset store implementations.
//
// Implementations:
//   - redis: one hash per URL with JSON records and TTL
//   - memory: in-memory reference implementation, also used in tests
package storage
