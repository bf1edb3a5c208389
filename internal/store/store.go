package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/casstore/internal/backend"
	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/ty"
)

// Store combines a backend with hashing and a codec.
type Store struct {
	backend backend.Backend
	codec   Codec
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*config)

type config struct {
	codec    Codec
	logger   *slog.Logger
	readOnly bool
}

// WithCodec selects the codec used by the typed operations. The default
// is JSON.
func WithCodec(c Codec) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.codec = c
		}
	}
}

// WithLogger sets the logger for store-level debug events.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithReadOnly rejects every mutation at the store, whatever the
// backend allows.
func WithReadOnly() Option {
	return func(cfg *config) {
		cfg.readOnly = true
	}
}

func buildConfig(opts []Option) config {
	cfg := config{
		codec:  JSON,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// New returns a Store that owns b. Closing the Store closes b when b
// implements io.Closer.
func New(b backend.Backend, opts ...Option) *Store {
	return newStore(b, buildConfig(opts))
}

func newStore(b backend.Backend, cfg config) *Store {
	if cfg.readOnly {
		b = backend.ReadOnly(b)
	}
	return &Store{backend: b, codec: cfg.codec, logger: cfg.logger}
}

// NewMemory returns a Store over a fresh in-memory backend.
func NewMemory(opts ...Option) *Store {
	cfg := buildConfig(opts)
	return newStore(backend.NewMemory(backend.WithLogger(cfg.logger)), cfg)
}

// OpenSQLite opens a Store over the SQLite database at path. The store's
// logger, when given, is passed to the backend too.
func OpenSQLite(path string, params backend.Params, opts ...Option) (*Store, error) {
	cfg := buildConfig(opts)
	if cfg.readOnly {
		params.ReadOnly = true
	}
	b, err := backend.OpenSQLite(path, params, backend.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}
	return newStore(b, cfg), nil
}

// Backend returns the underlying backend.
func (s *Store) Backend() backend.Backend { return s.backend }

// Codec returns the codec used by the typed operations.
func (s *Store) Codec() Codec { return s.codec }

// Close releases the backend.
func (s *Store) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WriteRaw stores content under (tag, hash) without hashing or encoding.
// The hash is trusted as given.
func (s *Store) WriteRaw(ctx context.Context, tag ty.Ty, hash digest.ContentHash, content []byte) error {
	return s.backend.Put(ctx, tag, hash, content)
}

// GetRaw returns the bytes stored under (tag, hash).
func (s *Store) GetRaw(ctx context.Context, tag ty.Ty, hash digest.ContentHash) ([]byte, bool, error) {
	return s.backend.Get(ctx, tag, hash)
}

// GetAllRaw returns every entry of the partition, ordered by hash.
func (s *Store) GetAllRaw(ctx context.Context, tag ty.Ty) ([]backend.Entry, error) {
	return s.backend.GetAll(ctx, tag)
}

// DeleteRaw removes one entry.
func (s *Store) DeleteRaw(ctx context.Context, tag ty.Ty, hash digest.ContentHash) error {
	return s.backend.Delete(ctx, tag, hash)
}

// DeleteAllRaw removes the partition.
func (s *Store) DeleteAllRaw(ctx context.Context, tag ty.Ty) error {
	return s.backend.DeleteAll(ctx, tag)
}

// WriteJSON stores a JSON document under tag. The hash covers the parsed
// document, so formatting and key order do not change it. The document is
// stored compact with its object keys sorted.
func (s *Store) WriteJSON(ctx context.Context, tag ty.Ty, data []byte) (digest.ContentHash, error) {
	h, doc, err := digest.DigestJSON(data)
	if err != nil {
		var encErr *digest.EncodeError
		if errors.As(err, &encErr) {
			return digest.ContentHash{}, err
		}
		return digest.ContentHash{}, &CodecError{Codec: "json", Op: "unmarshal", Err: err}
	}
	compact, err := digest.CompactJSON(doc)
	if err != nil {
		return digest.ContentHash{}, &CodecError{Codec: "json", Op: "marshal", Err: err}
	}
	if err := s.WriteRaw(ctx, tag, h, compact); err != nil {
		return digest.ContentHash{}, err
	}
	s.logger.Debug("document written", "ty", tag.String(), "hash", h.String())
	return h, nil
}

// Tags lists the partitions present in the backend.
func (s *Store) Tags(ctx context.Context) ([]ty.Ty, error) {
	l, ok := s.backend.(backend.Lister)
	if !ok {
		return nil, fmt.Errorf("list partitions: %w", errors.ErrUnsupported)
	}
	return l.Tags(ctx)
}

// DeleteEverywhere removes hash from every partition and returns the tags
// it was found in. It needs a backend that implements backend.Lister. A
// read-only store fails with backend.ErrReadOnly whether or not hash is
// present.
func (s *Store) DeleteEverywhere(ctx context.Context, hash digest.ContentHash) ([]ty.Ty, error) {
	if backend.IsReadOnly(s.backend) {
		return nil, &backend.Error{Op: "delete_everywhere", Err: backend.ErrReadOnly}
	}
	tags, err := s.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", hash, err)
	}

	var removed []ty.Ty
	for _, tag := range tags {
		_, ok, err := s.backend.Get(ctx, tag, hash)
		if err != nil {
			return removed, err
		}
		if !ok {
			continue
		}
		if err := s.backend.Delete(ctx, tag, hash); err != nil {
			return removed, err
		}
		removed = append(removed, tag)
	}
	s.logger.Debug("hash deleted", "hash", hash.String(), "partitions", len(removed))
	return removed, nil
}
