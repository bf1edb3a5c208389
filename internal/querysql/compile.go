package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/casstore/internal/ty"
)

// TablePrefix starts the name of every partition table.
const TablePrefix = "ty_"

// ListTables selects the names of all partition tables. Escaped names do
// not sort like their tags, so callers order the decoded tags themselves.
// substr avoids LIKE, which treats "_" as a wildcard.
const ListTables = `SELECT name FROM sqlite_master WHERE type = 'table' AND substr(name, 1, 3) = 'ty_'`

// Statements holds the SQL for one partition.
type Statements struct {
	Table     string // quoted table identifier
	Create    string
	Upsert    string // args: content_hash, content
	SelectOne string // args: content_hash
	SelectAll string
	Delete    string // args: content_hash
	Drop      string
}

// escapeMark precedes an escaped byte in a table name.
const escapeMark = '^'

// TableName returns the unquoted table name for tag. SQLite compares
// identifiers without regard to ASCII case, so each uppercase letter is
// written as the mark followed by its lowercase form and the mark itself
// is doubled. The result holds no uppercase ASCII and distinct tags never
// share a name.
func TableName(tag ty.Ty) string {
	s := tag.String()
	var b strings.Builder
	b.Grow(len(TablePrefix) + len(s) + 8)
	b.WriteString(TablePrefix)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == escapeMark:
			b.WriteByte(escapeMark)
			b.WriteByte(escapeMark)
		case 'A' <= c && c <= 'Z':
			b.WriteByte(escapeMark)
			b.WriteByte(c + ('a' - 'A'))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// TagFromTable reverses TableName. It reports false for tables that are
// not partitions, that hold a stray mark or uppercase letter, or whose
// suffix is not a valid tag.
func TagFromTable(name string) (ty.Ty, bool) {
	rest, ok := strings.CutPrefix(name, TablePrefix)
	if !ok {
		return ty.Ty{}, false
	}
	var b strings.Builder
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		switch {
		case 'A' <= c && c <= 'Z':
			return ty.Ty{}, false
		case c != escapeMark:
			b.WriteByte(c)
			continue
		}
		i++
		if i == len(rest) {
			return ty.Ty{}, false
		}
		switch next := rest[i]; {
		case next == escapeMark:
			b.WriteByte(escapeMark)
		case 'a' <= next && next <= 'z':
			b.WriteByte(next - ('a' - 'A'))
		default:
			return ty.Ty{}, false
		}
	}
	tag, err := ty.Parse(b.String())
	if err != nil {
		return ty.Ty{}, false
	}
	return tag, true
}

// QuoteIdent quotes name as an SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Compile returns the statements for tag's partition.
func Compile(tag ty.Ty) Statements {
	table := QuoteIdent(TableName(tag))
	return Statements{
		Table: table,
		Create: fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (content_hash BLOB PRIMARY KEY NOT NULL, content BLOB NOT NULL) WITHOUT ROWID",
			table),
		Upsert: fmt.Sprintf(
			"INSERT INTO %s (content_hash, content) VALUES (?, ?) ON CONFLICT(content_hash) DO UPDATE SET content = excluded.content",
			table),
		SelectOne: fmt.Sprintf("SELECT content FROM %s WHERE content_hash = ?", table),
		SelectAll: fmt.Sprintf("SELECT content_hash, content FROM %s ORDER BY content_hash ASC", table),
		Delete:    fmt.Sprintf("DELETE FROM %s WHERE content_hash = ?", table),
		Drop:      fmt.Sprintf("DROP TABLE IF EXISTS %s", table),
	}
}
