package digest

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Size is the length of a ContentHash in bytes.
const Size = 32

// HexSize is the length of the hex text form of a ContentHash.
const HexSize = 2 * Size

// ContentHash is the BLAKE3 digest of a value's canonical encoding.
// Two ContentHash values are equal iff their bytes are equal.
type ContentHash [Size]byte

// String returns the canonical 64-character lowercase hex form.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the raw hash bytes.
func (h ContentHash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// IsZero reports whether h is the all-zero hash.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// MarshalText implements encoding.TextMarshaler.
func (h ContentHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *ContentHash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses the 64-character hex form of a ContentHash.
func ParseHash(s string) (ContentHash, error) {
	var h ContentHash
	if len(s) != HexSize {
		return h, fmt.Errorf("hash must be exactly %d hexadecimal characters, got %d", HexSize, len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return ContentHash{}, fmt.Errorf("parsing content hash: %w", err)
	}
	return h, nil
}

// HashFromBytes converts a raw 32-byte slice, as stored by a backend,
// into a ContentHash.
func HashFromBytes(b []byte) (ContentHash, error) {
	var h ContentHash
	if len(b) != Size {
		return h, fmt.Errorf("content hash is %d bytes, want %d", len(b), Size)
	}
	copy(h[:], b)
	return h, nil
}

// Digest returns the ContentHash of v's canonical encoding.
// A non-nil pointer argument is dereferenced once, so Digest(&v) equals
// Digest(v); pointers nested inside v encode as optionals.
func Digest(v any) (ContentHash, error) {
	hasher := blake3.New()
	if err := NewEncoder(hasher).encodeTop(v); err != nil {
		return ContentHash{}, err
	}
	var h ContentHash
	copy(h[:], hasher.Sum(nil))
	return h, nil
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when v is known to be encodable.
func MustDigest(v any) ContentHash {
	h, err := Digest(v)
	if err != nil {
		panic(err)
	}
	return h
}

// sumBytes hashes an already canonical byte sequence.
func sumBytes(canonical []byte) ContentHash {
	return ContentHash(blake3.Sum256(canonical))
}
