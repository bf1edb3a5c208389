package store

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/ty"
)

// Item is one decoded entry of a partition.
type Item[T any] struct {
	Hash  digest.ContentHash
	Value T
}

func tagOf[T any]() (ty.Ty, error) {
	tag, err := ty.For(reflect.TypeFor[T]())
	if err != nil {
		return ty.Ty{}, fmt.Errorf("type tag: %w", err)
	}
	return tag, nil
}

// Write hashes v, encodes it with the store's codec and stores it in the
// partition of T. It returns the hash to retrieve v by.
func Write[T any](ctx context.Context, s *Store, v T) (digest.ContentHash, error) {
	tag, err := tagOf[T]()
	if err != nil {
		return digest.ContentHash{}, err
	}
	h, err := digest.Digest(v)
	if err != nil {
		return digest.ContentHash{}, fmt.Errorf("hash %s: %w", tag, err)
	}
	data, err := s.codec.Marshal(v)
	if err != nil {
		return digest.ContentHash{}, &CodecError{Codec: s.codec.Name(), Op: "marshal", Err: err}
	}
	if err := s.backend.Put(ctx, tag, h, data); err != nil {
		return digest.ContentHash{}, err
	}
	s.logger.Debug("value written", "ty", tag.String(), "hash", h.String())
	return h, nil
}

// Get fetches and decodes the value stored under hash in T's partition.
// The boolean is false when no such entry exists.
func Get[T any](ctx context.Context, s *Store, hash digest.ContentHash) (T, bool, error) {
	var v T
	tag, err := tagOf[T]()
	if err != nil {
		return v, false, err
	}
	data, ok, err := s.backend.Get(ctx, tag, hash)
	if err != nil || !ok {
		return v, false, err
	}
	if err := s.codec.Unmarshal(data, &v); err != nil {
		return v, false, &CodecError{Codec: s.codec.Name(), Op: "unmarshal", Err: err}
	}
	return v, true, nil
}

// GetAll decodes every entry in T's partition, ordered by hash.
func GetAll[T any](ctx context.Context, s *Store) ([]Item[T], error) {
	tag, err := tagOf[T]()
	if err != nil {
		return nil, err
	}
	entries, err := s.backend.GetAll(ctx, tag)
	if err != nil {
		return nil, err
	}
	out := make([]Item[T], 0, len(entries))
	for _, e := range entries {
		var v T
		if err := s.codec.Unmarshal(e.Content, &v); err != nil {
			return nil, &CodecError{
				Codec: s.codec.Name(),
				Op:    "unmarshal",
				Err:   fmt.Errorf("entry %s: %w", e.Hash, err),
			}
		}
		out = append(out, Item[T]{Hash: e.Hash, Value: v})
	}
	return out, nil
}

// Delete removes hash from T's partition.
func Delete[T any](ctx context.Context, s *Store, hash digest.ContentHash) error {
	tag, err := tagOf[T]()
	if err != nil {
		return err
	}
	return s.backend.Delete(ctx, tag, hash)
}

// DeleteAll removes T's partition.
func DeleteAll[T any](ctx context.Context, s *Store) error {
	tag, err := tagOf[T]()
	if err != nil {
		return err
	}
	return s.backend.DeleteAll(ctx, tag)
}
