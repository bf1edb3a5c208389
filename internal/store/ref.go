package store

import (
	"context"

	"github.com/roach88/casstore/internal/digest"
)

// Ref is a content hash bound at compile time to the type it addresses.
// It holds only the hash; T has no runtime representation, so a Ref
// cannot be used to discover what it points at.
type Ref[T any] struct {
	_    [0]*T
	hash digest.ContentHash
}

// RefTo binds hash to T.
func RefTo[T any](hash digest.ContentHash) Ref[T] {
	return Ref[T]{hash: hash}
}

// Hash returns the referenced content hash.
func (r Ref[T]) Hash() digest.ContentHash { return r.hash }

func (r Ref[T]) String() string { return r.hash.String() }

// IsZero reports whether r is unset.
func (r Ref[T]) IsZero() bool { return r.hash.IsZero() }

// EncodeCanonical hashes a Ref exactly like its ContentHash.
func (r Ref[T]) EncodeCanonical(e *digest.Encoder) error {
	return e.Encode(r.hash)
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref[T]) MarshalText() ([]byte, error) {
	return r.hash.MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref[T]) UnmarshalText(text []byte) error {
	return r.hash.UnmarshalText(text)
}

// WriteRef is Write returning a typed reference.
func WriteRef[T any](ctx context.Context, s *Store, v T) (Ref[T], error) {
	h, err := Write(ctx, s, v)
	if err != nil {
		return Ref[T]{}, err
	}
	return RefTo[T](h), nil
}

// Load fetches the value r refers to.
func Load[T any](ctx context.Context, s *Store, r Ref[T]) (T, bool, error) {
	return Get[T](ctx, s, r.hash)
}
