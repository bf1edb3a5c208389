// Package digest computes content hashes for arbitrary Go values.
//
// A value is walked structurally and its canonical encoding is streamed
// into a BLAKE3 hasher. Only shape (lengths, variant indexes) and leaf
// values are hashed; type, field and variant names never are, so
// renaming a type keeps its hashes while changing its shape does not.
//
// # Canonical Encoding
//
//   - bool: one byte, 0 or 1
//   - intN, uintN, floatN: big-endian bytes of the declared width
//     (int, uint and uintptr are always 64-bit)
//   - Char: the code point widened to 8 bytes, big-endian
//   - string, []byte: raw bytes with no terminator or length
//   - pointers: nil is 0x00, non-nil is 0x01 followed by the pointee
//   - slices, arrays, maps, structs: a 16-byte big-endian length, then
//     the elements (struct fields in declaration order)
//   - maps: entries sorted by the canonical encoding of their keys
//   - nil interfaces and struct{}: nothing
//
// Discriminated unions and other types that need control over their
// shape implement [CanonicalEncoder] and drive an [Encoder] directly.
//
// Channels and iterator functions are sequences of unknown length and
// are rejected with [ErrUndefinedLength] since they cannot be hashed
// deterministically.
//
// # Usage
//
//	h, err := digest.Digest(value)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(h) // 64 lowercase hex characters
package digest
