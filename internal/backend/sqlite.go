package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/querysql"
	"github.com/roach88/casstore/internal/ty"
)

// SQLite stores each partition as a table in one database file. Tables
// are created on the first Put to a tag and dropped by DeleteAll.
type SQLite struct {
	db       *sql.DB
	id       uuid.UUID
	readOnly bool
	logger   *slog.Logger
}

var (
	_ Backend = (*SQLite)(nil)
	_ Lister  = (*SQLite)(nil)
)

// OpenSQLite opens the database at path.
//
// With params.CreateIfMissing a missing file is created; otherwise, and
// always under params.ReadOnly, a missing file fails with ErrNotExist.
// A read-only handle rejects Put, Delete and DeleteAll with ErrReadOnly
// and is opened with mode=ro so SQLite enforces the same.
//
// The handle holds a single connection. SQLite allows one writer at a
// time and partitions are created lazily, so one connection avoids
// SQLITE_BUSY between our own statements.
func OpenSQLite(path string, params Params, opts ...Option) (*SQLite, error) {
	o := buildOptions(opts)

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, opError("open", ty.Ty{}, err)
		}
		if params.ReadOnly || !params.CreateIfMissing {
			return nil, opError("open", ty.Ty{}, fmt.Errorf("%s: %w", path, ErrNotExist))
		}
	}

	db, err := sql.Open("sqlite3", dsn(path, params))
	if err != nil {
		return nil, opError("open", ty.Ty{}, fmt.Errorf("failed to open database: %w", err))
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, opError("open", ty.Ty{}, fmt.Errorf("failed to connect to database: %w", err))
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, params.ReadOnly); err != nil {
		db.Close()
		return nil, opError("open", ty.Ty{}, fmt.Errorf("failed to apply pragmas: %w", err))
	}

	s := &SQLite{
		db:       db,
		id:       uuid.Must(uuid.NewV7()),
		readOnly: params.ReadOnly,
	}
	s.logger = o.logger.With("backend", "sqlite", "handle", s.id.String())
	s.logger.Info("database opened", "path", path, "read_only", params.ReadOnly)
	return s, nil
}

// dsn builds a file: URI. mode=ro|rw|rwc maps the open params onto
// SQLite's own access checks; _mutex=no drops SQLite's connection mutex
// since a handle is single-owner.
func dsn(path string, params Params) string {
	mode := "rw"
	switch {
	case params.ReadOnly:
		mode = "ro"
	case params.CreateIfMissing:
		mode = "rwc"
	}
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(path)
	return fmt.Sprintf("file:%s?mode=%s&cache=private&_mutex=no", escaped, mode)
}

// applyPragmas sets required SQLite configuration. Journal settings are
// writes and are skipped on read-only handles.
func applyPragmas(db *sql.DB, readOnly bool) error {
	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if readOnly {
		pragmas = append(pragmas, "PRAGMA query_only = ON")
	} else {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection. Operations on a closed handle
// fail with sql.ErrConnDone.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info("database closed")
	err := s.db.Close()
	s.db = nil
	return err
}

// IsReadOnly reports whether the handle was opened read-only.
func (s *SQLite) IsReadOnly() bool { return s.readOnly }

func (s *SQLite) open(op string, tag ty.Ty) error {
	if s.db == nil {
		return opError(op, tag, sql.ErrConnDone)
	}
	return nil
}

func (s *SQLite) writable(op string, tag ty.Ty) error {
	if err := s.open(op, tag); err != nil {
		return err
	}
	if s.readOnly {
		return opError(op, tag, ErrReadOnly)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, tag ty.Ty, hash digest.ContentHash) ([]byte, bool, error) {
	if err := s.open("get", tag); err != nil {
		return nil, false, err
	}
	st := querysql.Compile(tag)

	var content []byte
	err := s.db.QueryRowContext(ctx, st.SelectOne, hash[:]).Scan(&content)
	switch {
	case errors.Is(err, sql.ErrNoRows), isMissingTable(err):
		return nil, false, nil
	case err != nil:
		return nil, false, opError("get", tag, err)
	}
	if content == nil {
		content = []byte{}
	}
	return content, true, nil
}

func (s *SQLite) GetAll(ctx context.Context, tag ty.Ty) ([]Entry, error) {
	if err := s.open("get_all", tag); err != nil {
		return nil, err
	}
	st := querysql.Compile(tag)

	rows, err := s.db.QueryContext(ctx, st.SelectAll)
	if isMissingTable(err) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, opError("get_all", tag, err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var rawHash, content []byte
		if err := rows.Scan(&rawHash, &content); err != nil {
			return nil, opError("get_all", tag, err)
		}
		h, err := digest.HashFromBytes(rawHash)
		if err != nil {
			return nil, opError("get_all", tag, fmt.Errorf("corrupt row in %s: %w", st.Table, err))
		}
		if content == nil {
			content = []byte{}
		}
		out = append(out, Entry{Hash: h, Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, opError("get_all", tag, err)
	}
	return out, nil
}

func (s *SQLite) Put(ctx context.Context, tag ty.Ty, hash digest.ContentHash, content []byte) error {
	if err := s.writable("put", tag); err != nil {
		return err
	}
	st := querysql.Compile(tag)
	if content == nil {
		// go-sqlite3 binds a nil slice as NULL.
		content = []byte{}
	}

	_, err := s.db.ExecContext(ctx, st.Upsert, hash[:], content)
	if isMissingTable(err) {
		if _, err := s.db.ExecContext(ctx, st.Create); err != nil {
			return opError("put", tag, fmt.Errorf("create partition: %w", err))
		}
		s.logger.Debug("partition created", "ty", tag.String())
		_, err = s.db.ExecContext(ctx, st.Upsert, hash[:], content)
	}
	return opError("put", tag, err)
}

func (s *SQLite) Delete(ctx context.Context, tag ty.Ty, hash digest.ContentHash) error {
	if err := s.writable("delete", tag); err != nil {
		return err
	}
	st := querysql.Compile(tag)

	_, err := s.db.ExecContext(ctx, st.Delete, hash[:])
	if isMissingTable(err) {
		return nil
	}
	return opError("delete", tag, err)
}

func (s *SQLite) DeleteAll(ctx context.Context, tag ty.Ty) error {
	if err := s.writable("delete_all", tag); err != nil {
		return err
	}
	st := querysql.Compile(tag)

	if _, err := s.db.ExecContext(ctx, st.Drop); err != nil {
		return opError("delete_all", tag, err)
	}
	s.logger.Debug("partition dropped", "ty", tag.String())
	return nil
}

// Tags lists the partitions present in the file. Tables whose names do
// not parse as tags are skipped.
func (s *SQLite) Tags(ctx context.Context) ([]ty.Ty, error) {
	if err := s.open("tags", ty.Ty{}); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, querysql.ListTables)
	if err != nil {
		return nil, opError("tags", ty.Ty{}, err)
	}
	defer rows.Close()

	out := []ty.Ty{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, opError("tags", ty.Ty{}, err)
		}
		tag, ok := querysql.TagFromTable(name)
		if !ok {
			s.logger.Warn("skipping table with unparseable tag", "table", name)
			continue
		}
		out = append(out, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, opError("tags", ty.Ty{}, err)
	}
	slices.SortFunc(out, func(a, b ty.Ty) int { return strings.Compare(a.String(), b.String()) })
	return out, nil
}

// isMissingTable reports whether err is SQLite's "no such table" error,
// which the backend treats as an empty partition.
func isMissingTable(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrError && strings.Contains(se.Error(), "no such table")
}
