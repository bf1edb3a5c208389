// Package testutil provides store fixtures shared by tests that must
// hold for every backend.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/casstore/internal/backend"
	"github.com/roach88/casstore/internal/store"
)

// StoreFactory opens a fresh, empty store for one test.
type StoreFactory struct {
	Name string
	Open func(t *testing.T, opts ...store.Option) *store.Store
}

// Stores returns a factory per backend: in-memory, and SQLite in a
// temporary directory. Stores are closed when the test ends.
func Stores() []StoreFactory {
	return []StoreFactory{
		{Name: "memory", Open: openMemory},
		{Name: "sqlite", Open: openSQLite},
	}
}

// ForEachStore runs fn as a subtest once per backend.
func ForEachStore(t *testing.T, fn func(t *testing.T, st *store.Store), opts ...store.Option) {
	t.Helper()
	for _, f := range Stores() {
		t.Run(f.Name, func(t *testing.T) {
			fn(t, f.Open(t, opts...))
		})
	}
}

func openMemory(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	st := store.NewMemory(opts...)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func openSQLite(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.OpenSQLite(path, backend.DefaultParams(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}
