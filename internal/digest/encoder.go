package digest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// lengthPrefixSize is the portable width of every length prefix.
// Lengths are written as unsigned 128-bit big-endian integers.
const lengthPrefixSize = 16

// maxDepth bounds nesting so cyclic pointer graphs fail instead of
// recursing forever.
const maxDepth = 512

// Char is a Unicode code point. It encodes as 8 big-endian bytes,
// distinct from int32 which encodes as 4.
type Char rune

// CanonicalEncoder is implemented by types that define their own
// canonical shape, typically discriminated unions:
//
//	func (s Shape) EncodeCanonical(e *digest.Encoder) error {
//	    switch s.Kind {
//	    case "circle":
//	        if err := e.Variant(0); err != nil {
//	            return err
//	        }
//	        return e.Float64(s.Radius)
//	    case "rect":
//	        if err := e.Variant(1); err != nil {
//	            return err
//	        }
//	        if err := e.Len(2); err != nil {
//	            return err
//	        }
//	        if err := e.Float64(s.W); err != nil {
//	            return err
//	        }
//	        return e.Float64(s.H)
//	    }
//	    return digest.Custom("unknown shape %q", s.Kind)
//	}
type CanonicalEncoder interface {
	EncodeCanonical(e *Encoder) error
}

// Encoder writes canonical encodings to an underlying writer, usually a
// hasher. The zero value is not usable; call NewEncoder.
type Encoder struct {
	w     io.Writer
	depth int
	// scratch avoids an allocation per fixed-width write
	scratch [lengthPrefixSize]byte
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode returns the canonical encoding of v as bytes. Digest(v) is
// the BLAKE3 hash of exactly these bytes.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).encodeTop(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) write(b []byte) error {
	if _, err := e.w.Write(b); err != nil {
		return fmt.Errorf("digest: write: %w", err)
	}
	return nil
}

// Bool writes a single 0 or 1 byte.
func (e *Encoder) Bool(v bool) error {
	if v {
		return e.write([]byte{1})
	}
	return e.write([]byte{0})
}

func (e *Encoder) Int8(v int8) error   { return e.Uint8(uint8(v)) }
func (e *Encoder) Int16(v int16) error { return e.Uint16(uint16(v)) }
func (e *Encoder) Int32(v int32) error { return e.Uint32(uint32(v)) }
func (e *Encoder) Int64(v int64) error { return e.Uint64(uint64(v)) }

func (e *Encoder) Uint8(v uint8) error {
	e.scratch[0] = v
	return e.write(e.scratch[:1])
}

func (e *Encoder) Uint16(v uint16) error {
	binary.BigEndian.PutUint16(e.scratch[:2], v)
	return e.write(e.scratch[:2])
}

func (e *Encoder) Uint32(v uint32) error {
	binary.BigEndian.PutUint32(e.scratch[:4], v)
	return e.write(e.scratch[:4])
}

func (e *Encoder) Uint64(v uint64) error {
	binary.BigEndian.PutUint64(e.scratch[:8], v)
	return e.write(e.scratch[:8])
}

// Float32 writes the IEEE 754 bits big-endian.
func (e *Encoder) Float32(v float32) error { return e.Uint32(math.Float32bits(v)) }

// Float64 writes the IEEE 754 bits big-endian.
func (e *Encoder) Float64(v float64) error { return e.Uint64(math.Float64bits(v)) }

// Char writes the code point widened to 8 bytes.
func (e *Encoder) Char(r rune) error { return e.Uint64(uint64(uint32(r))) }

// String writes the raw UTF-8 bytes of s without a length.
func (e *Encoder) String(s string) error {
	return e.write([]byte(s))
}

// Bytes writes b without a length.
func (e *Encoder) Bytes(b []byte) error {
	return e.write(b)
}

// None writes an absent optional.
func (e *Encoder) None() error {
	return e.write([]byte{0})
}

// Some writes a present optional followed by v.
func (e *Encoder) Some(v any) error {
	if err := e.write([]byte{1}); err != nil {
		return err
	}
	return e.Encode(v)
}

// Len writes a length prefix for a sequence, tuple, map or struct of n
// elements. A negative n means the length is unknown and fails with
// ErrUndefinedLength.
func (e *Encoder) Len(n int) error {
	if n < 0 {
		return &EncodeError{Kind: KindUndefinedLength, Message: "sequence length must be known before encoding"}
	}
	clear(e.scratch[:8])
	binary.BigEndian.PutUint64(e.scratch[8:], uint64(n))
	return e.write(e.scratch[:])
}

// Variant writes the discriminant of a union variant. Unit variants
// write only this; newtype variants follow it with their payload; tuple
// and struct variants follow it with Len and their fields.
func (e *Encoder) Variant(index uint32) error {
	return e.Uint32(index)
}
