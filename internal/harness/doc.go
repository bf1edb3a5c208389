// Package harness replays store operations described in YAML scenario
// files and checks the results.
//
// The same scenario runs against every backend. Each run records a trace
// of the operations and their outcomes, and the trace is compared against
// a golden file shared by all backends, so any behavioral difference
// between backends fails the comparison.
//
// # Scenario Format
//
//	name: round_trip
//	description: "Write, read back and drop a partition"
//	steps:
//	  - op: write
//	    ty: pkg::Foo
//	    value: { inner: 6 }
//	  - op: get
//	    ty: pkg::Foo
//	    value: { inner: 6 }
//	    expect:
//	      found: true
//	      value: { inner: 6 }
//	  - op: delete_all
//	    ty: pkg::Foo
//	assertions:
//	  - type: count
//	    ty: pkg::Foo
//	    count: 0
//
// A step addresses a document by value (hashed the way the store hashes
// it), by raw JSON text, or by hash. A hash is either 64 hex characters
// or an alias such as "h1", assigned to each distinct hash in the order
// the run first meets it.
//
// # Operations
//
//   - write: store the document under ty
//   - get: look the document up in ty
//   - get_all: list ty; the trace shows the aliases of its entries
//   - delete: remove the document from ty
//   - delete_all: drop ty
//   - delete_everywhere: remove the document from every partition
//   - tags: list the partitions
//   - freeze: make the store read-only for the remaining steps
//
// # Assertion Types
//
//   - contains: ty holds the document, with equal content when a value is given
//   - absent: ty does not hold the document
//   - count: ty holds exactly count entries
//   - tags: the store lists exactly these partitions
//
// # Golden Files
//
// Traces are stored in testdata/golden/{name}.golden. Hashes appear only
// as aliases, and get_all lists its aliases sorted by name. To regenerate
// them, run:
//
//	go test ./internal/harness -update
package harness
