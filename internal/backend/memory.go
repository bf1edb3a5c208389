package backend

import (
	"bytes"
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/ty"
)

// Memory is an in-process backend holding every partition in maps.
// Contents are copied on the way in and out, so callers may reuse their
// buffers. The zero value is not usable; call NewMemory.
type Memory struct {
	partitions map[string]*partition
	logger     *slog.Logger
}

type partition struct {
	tag     ty.Ty
	entries map[digest.ContentHash][]byte
}

var (
	_ Backend = (*Memory)(nil)
	_ Lister  = (*Memory)(nil)
)

// NewMemory returns an empty in-memory backend.
func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		partitions: make(map[string]*partition),
		logger:     o.logger.With("backend", "memory"),
	}
}

func (m *Memory) Get(ctx context.Context, tag ty.Ty, hash digest.ContentHash) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, opError("get", tag, err)
	}
	p, ok := m.partitions[tag.String()]
	if !ok {
		return nil, false, nil
	}
	content, ok := p.entries[hash]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(content), true, nil
}

func (m *Memory) GetAll(ctx context.Context, tag ty.Ty) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("get_all", tag, err)
	}
	p, ok := m.partitions[tag.String()]
	if !ok {
		return []Entry{}, nil
	}
	hashes := slices.SortedFunc(maps.Keys(p.entries), func(a, b digest.ContentHash) int {
		return bytes.Compare(a[:], b[:])
	})
	out := make([]Entry, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, Entry{Hash: h, Content: bytes.Clone(p.entries[h])})
	}
	return out, nil
}

func (m *Memory) Put(ctx context.Context, tag ty.Ty, hash digest.ContentHash, content []byte) error {
	if err := ctx.Err(); err != nil {
		return opError("put", tag, err)
	}
	key := tag.String()
	p, ok := m.partitions[key]
	if !ok {
		p = &partition{tag: tag, entries: make(map[digest.ContentHash][]byte)}
		m.partitions[key] = p
		m.logger.Debug("partition created", "ty", key)
	}
	stored := make([]byte, len(content))
	copy(stored, content)
	p.entries[hash] = stored
	return nil
}

func (m *Memory) Delete(ctx context.Context, tag ty.Ty, hash digest.ContentHash) error {
	if err := ctx.Err(); err != nil {
		return opError("delete", tag, err)
	}
	if p, ok := m.partitions[tag.String()]; ok {
		delete(p.entries, hash)
	}
	return nil
}

func (m *Memory) DeleteAll(ctx context.Context, tag ty.Ty) error {
	if err := ctx.Err(); err != nil {
		return opError("delete_all", tag, err)
	}
	key := tag.String()
	if _, ok := m.partitions[key]; ok {
		delete(m.partitions, key)
		m.logger.Debug("partition dropped", "ty", key)
	}
	return nil
}

// Tags lists partitions that have been written and not dropped, including
// partitions emptied by Delete.
func (m *Memory) Tags(ctx context.Context) ([]ty.Ty, error) {
	if err := ctx.Err(); err != nil {
		return nil, opError("tags", ty.Ty{}, err)
	}
	keys := slices.Sorted(maps.Keys(m.partitions))
	out := make([]ty.Ty, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.partitions[k].tag)
	}
	return out, nil
}
