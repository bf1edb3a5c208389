package backend

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casstore/internal/ty"
)

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(path, DefaultParams())
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpenSQLite_MissingWithoutCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := OpenSQLite(path, Params{CreateIfMissing: false})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotExist)

	_, err = OpenSQLite(path, Params{CreateIfMissing: true, ReadOnly: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotExist, "read-only never creates")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpenSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := OpenSQLite(path, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, fooTag, hashOf("a"), []byte("a")))
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(path, Params{CreateIfMissing: false})
	require.NoError(t, err)
	defer s2.Close()

	got, ok, err := s2.Get(ctx, fooTag, hashOf("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), got)
	assert.NotEqual(t, s1.id, s2.id, "each handle gets its own id")
}

func TestOpenSQLite_ReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	rw, err := OpenSQLite(path, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, rw.Put(ctx, fooTag, hashOf("a"), []byte("a")))
	require.NoError(t, rw.Close())

	ro, err := OpenSQLite(path, Params{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	assert.True(t, IsReadOnly(ro))
	assert.ErrorIs(t, ro.Put(ctx, fooTag, hashOf("b"), []byte("b")), ErrReadOnly)
	assert.ErrorIs(t, ro.Delete(ctx, fooTag, hashOf("a")), ErrReadOnly)
	assert.ErrorIs(t, ro.DeleteAll(ctx, fooTag), ErrReadOnly)

	got, ok, err := ro.Get(ctx, fooTag, hashOf("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), got)

	all, err := ro.GetAll(ctx, barTag)
	require.NoError(t, err)
	assert.Empty(t, all, "missing partition reads as empty on a read-only handle")
}

func TestOpenSQLite_Pragmas(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), DefaultParams())
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestOpenSQLite_LazyTables(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), DefaultParams())
	require.NoError(t, err)
	defer s.Close()

	count := func() int {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&n))
		return n
	}

	_, _, err = s.Get(ctx, fooTag, hashOf("a"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, fooTag, hashOf("a")))
	assert.Equal(t, 0, count(), "reads and deletes never create tables")

	require.NoError(t, s.Put(ctx, fooTag, hashOf("a"), []byte("a")))
	assert.Equal(t, 1, count())

	var name string
	require.NoError(t, s.db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table'").Scan(&name))
	assert.Equal(t, "ty_pkg::^foo", name)

	require.NoError(t, s.DeleteAll(ctx, fooTag))
	assert.Equal(t, 0, count(), "DeleteAll drops the table")
}

func TestOpenSQLite_SkipsForeignTables(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), DefaultParams())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec(`CREATE TABLE notes (id INTEGER)`)
	require.NoError(t, err)
	_, err = s.db.Exec(`CREATE TABLE "ty_broken<" (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, fooTag, hashOf("a"), []byte("a")))

	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "pkg::Foo", tags[0].String())
}

func TestOpenSQLite_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), DefaultParams(), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), fooTag, hashOf("a"), []byte("a")))
	require.NoError(t, s.Close())

	out := buf.String()
	assert.Contains(t, out, "database opened")
	assert.Contains(t, out, "partition created")
	assert.Contains(t, out, "handle="+s.id.String())
	assert.Equal(t, 1, strings.Count(out, "partition created"))
}

func TestCloseIdempotent(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestClosedHandle(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, fooTag, hashOf("a"), []byte("a")))
	require.NoError(t, s.Close())

	_, _, err = s.Get(ctx, fooTag, hashOf("a"))
	assert.ErrorIs(t, err, sql.ErrConnDone)
	_, err = s.GetAll(ctx, fooTag)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.ErrorIs(t, s.Put(ctx, fooTag, hashOf("b"), []byte("b")), sql.ErrConnDone)
	assert.ErrorIs(t, s.Delete(ctx, fooTag, hashOf("a")), sql.ErrConnDone)
	assert.ErrorIs(t, s.DeleteAll(ctx, fooTag), sql.ErrConnDone)
	_, err = s.Tags(ctx)
	assert.ErrorIs(t, err, sql.ErrConnDone)

	var backErr *Error
	assert.ErrorAs(t, err, &backErr)
}

func TestTagsSortedByCanonicalString(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), DefaultParams())
	require.NoError(t, err)
	defer s.Close()

	// Table names escape uppercase, so their order is not tag order.
	for _, tag := range []string{"pkg::a", "pkg::B", "pkg::^z", "pkg::Box<pkg::A>"} {
		require.NoError(t, s.Put(ctx, ty.MustParse(tag), hashOf("x"), []byte("x")))
	}
	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	var got []string
	for _, tag := range tags {
		got = append(got, tag.String())
	}
	assert.Equal(t, []string{"pkg::B", "pkg::Box<pkg::A>", "pkg::^z", "pkg::a"}, got)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "file:a.db?mode=rwc&cache=private&_mutex=no", dsn("a.db", DefaultParams()))
	assert.Equal(t, "file:a.db?mode=rw&cache=private&_mutex=no", dsn("a.db", Params{}))
	assert.Equal(t, "file:/x/a%3f.db?mode=ro&cache=private&_mutex=no", dsn("/x/a?.db", Params{ReadOnly: true}))
}
