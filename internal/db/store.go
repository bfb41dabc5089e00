package db

import (
	"database/sql"
	"strconv"
	"strings"
)

// Store is the interface for all card database operations. Both SQLite (local)
// and PostgreSQL (shared server) backends implement it.
type Store interface {
	// Close closes the database connection.
	Close() error

	// Dialect reports which SQL flavour raw queries must be written in.
	Dialect() Dialect

	// --- Card operations ---

	UpsertCards(cards []CardInput) error
	GetCard(oracleID string) (*Card, error)
	FindCardByName(name string) (*Card, error)
	GetPrintings(oracleID string, limit int) ([]*Printing, error)
	GetLegalities(oracleID string) ([]Legality, error)

	// --- Meta operations ---

	GetMeta(key string) (string, error)
	SetMeta(key, value string) error
	StartIngestRun(source string) (*IngestRun, error)
	FinishIngestRun(id string, cards, printings int) error
	LastIngestRun() (*IngestRun, error)
	Status() (*Status, error)

	// --- Raw SQL access ---
	// Used by the search executor, which builds queries dynamically. Queries
	// are written with ? placeholders and rebound for the backend.

	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Begin() (*sql.Tx, error)
}

// Dialect identifies a SQL backend.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// Rebind rewrites ? placeholders into the backend's form. Question marks
// inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Lower renders a Unicode-aware lowercase fold of column. SQLite's LOWER
// only folds ASCII, so the SQLite store registers casefold for this.
func (d Dialect) Lower(column string) string {
	if d == Postgres {
		return "LOWER(" + column + ")"
	}
	return "casefold(" + column + ")"
}

// Regexp renders a case-insensitive regular expression match of column
// against one bound pattern.
func (d Dialect) Regexp(column string) string {
	if d == Postgres {
		return column + " ~* ?"
	}
	return column + " REGEXP ?"
}
