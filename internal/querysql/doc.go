// Package querysql builds the SQL statements the SQLite backend runs
// against a partition.
//
// Every type tag maps to one table named "ty_" followed by the tag's
// canonical string, with uppercase ASCII escaped as "^" plus the
// lowercase letter so that SQLite's case-insensitive identifiers keep
// pkg::Foo and pkg::foo apart. Canonical tags contain characters that
// are not legal in bare identifiers (":", "<", ">", ","), so table names
// are always emitted as quoted identifiers.
//
// Each partition table has the same layout:
//
//	content_hash BLOB PRIMARY KEY  -- 32-byte BLAKE3 digest
//	content      BLOB NOT NULL     -- codec-encoded value
//
// Values are never interpolated into statements; hashes and content are
// always bound as ? parameters. Full scans order by content_hash so that
// results are deterministic and byte-identical to the in-memory backend.
package querysql
