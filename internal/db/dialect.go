package db

import (
	"strconv"
	"strings"
)

// Dialect captures the few differences between the SQLite and Postgres stores. Queries
// are written with ? placeholders and rebound for Postgres.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

func ParseDialect(driver string) Dialect {
	if driver == string(DialectPostgres) {
		return DialectPostgres
	}
	return DialectSQLite
}

func (d Dialect) Driver() string {
	return string(d)
}

// MigrationDir is the directory inside the embedded migrations FS for this dialect.
func (d Dialect) MigrationDir() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites ? placeholders to $N for Postgres. Question marks inside single-quoted
// literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			quoted = !quoted
			b.WriteByte(ch)
		case ch == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
