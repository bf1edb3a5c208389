// Package backend defines the storage contract for casstore and its two
// implementations.
//
// A Backend stores opaque byte blobs addressed by (type tag, content
// hash). It does not hash, encode, or interpret content: the store
// layer above it computes hashes and encodes values. Every operation is
// scoped to one partition, the set of entries sharing a type tag.
// Partitions never observe each other.
//
// Two implementations are provided:
//
//   - Memory: a map of partitions, for tests and ephemeral use
//   - SQLite: one table per partition in a single database file
//
// Both produce identical observable results for any sequence of
// operations, including the order of GetAll (ascending hash bytes).
//
// Neither implementation locks. A handle is owned by one goroutine at a
// time; callers that share a handle synchronize externally.
package backend
