package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/ty"
)

var (
	// ErrReadOnly is returned by mutating operations on a read-only handle.
	ErrReadOnly = errors.New("backend is read-only")

	// ErrNotExist is returned when opening a database that does not exist
	// and may not be created.
	ErrNotExist = errors.New("database does not exist")
)

// Entry is one stored blob.
type Entry struct {
	Hash    digest.ContentHash
	Content []byte
}

// Backend is the storage contract. Implementations treat content as
// opaque and never verify that Hash matches it.
type Backend interface {
	// Get returns the content stored under (tag, hash). The boolean is
	// false when no such entry exists, including when the partition has
	// never been written.
	Get(ctx context.Context, tag ty.Ty, hash digest.ContentHash) ([]byte, bool, error)

	// GetAll returns every entry in the partition, ordered by hash bytes.
	// A missing partition yields an empty slice.
	GetAll(ctx context.Context, tag ty.Ty) ([]Entry, error)

	// Put stores content under (tag, hash), replacing any existing entry.
	Put(ctx context.Context, tag ty.Ty, hash digest.ContentHash, content []byte) error

	// Delete removes one entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, tag ty.Ty, hash digest.ContentHash) error

	// DeleteAll removes the partition. Other partitions are untouched.
	DeleteAll(ctx context.Context, tag ty.Ty) error
}

// Lister is implemented by backends that can enumerate their partitions.
type Lister interface {
	// Tags returns the tag of every existing partition, sorted by
	// canonical string.
	Tags(ctx context.Context) ([]ty.Ty, error)
}

// Error describes a failed backend operation.
type Error struct {
	Op  string
	Tag ty.Ty
	Err error
}

func (e *Error) Error() string {
	if e.Tag.IsZero() {
		return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend %s %s: %v", e.Op, e.Tag, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op string, tag ty.Ty, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Tag: tag, Err: err}
}

// IsReadOnly reports whether b rejects every mutation, either because it
// was opened read-only or because it is wrapped by ReadOnly.
func IsReadOnly(b Backend) bool {
	ro, ok := b.(interface{ IsReadOnly() bool })
	return ok && ro.IsReadOnly()
}

// ReadOnly wraps b so that Put, Delete and DeleteAll fail with
// ErrReadOnly. Reads and listing pass through.
func ReadOnly(b Backend) Backend {
	if ro, ok := b.(readOnly); ok {
		return ro
	}
	return readOnly{b: b}
}

type readOnly struct {
	b Backend
}

func (readOnly) IsReadOnly() bool { return true }

func (r readOnly) Get(ctx context.Context, tag ty.Ty, hash digest.ContentHash) ([]byte, bool, error) {
	return r.b.Get(ctx, tag, hash)
}

func (r readOnly) GetAll(ctx context.Context, tag ty.Ty) ([]Entry, error) {
	return r.b.GetAll(ctx, tag)
}

func (r readOnly) Put(_ context.Context, tag ty.Ty, _ digest.ContentHash, _ []byte) error {
	return opError("put", tag, ErrReadOnly)
}

func (r readOnly) Delete(_ context.Context, tag ty.Ty, _ digest.ContentHash) error {
	return opError("delete", tag, ErrReadOnly)
}

func (r readOnly) DeleteAll(_ context.Context, tag ty.Ty) error {
	return opError("delete_all", tag, ErrReadOnly)
}

func (r readOnly) Tags(ctx context.Context) ([]ty.Ty, error) {
	if l, ok := r.b.(Lister); ok {
		return l.Tags(ctx)
	}
	return nil, opError("tags", ty.Ty{}, errors.ErrUnsupported)
}

func (r readOnly) Close() error {
	if c, ok := r.b.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
