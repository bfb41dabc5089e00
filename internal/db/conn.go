package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")

type migration struct {
	version int
	sqls    []string
}

// conn holds what the SQLite and PostgreSQL stores share. Every query in this
// package is written with ? placeholders and passes through q before it runs.
type conn struct {
	db      *sql.DB
	dialect Dialect
}

func (c *conn) q(query string) string {
	return c.dialect.Rebind(query)
}

func (c *conn) Close() error {
	return c.db.Close()
}

func (c *conn) Dialect() Dialect {
	return c.dialect
}

func (c *conn) Exec(query string, args ...interface{}) (sql.Result, error) {
	return c.db.Exec(c.q(query), args...)
}

func (c *conn) QueryRow(query string, args ...interface{}) *sql.Row {
	return c.db.QueryRow(c.q(query), args...)
}

func (c *conn) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.Query(c.q(query), args...)
}

func (c *conn) Begin() (*sql.Tx, error) {
	return c.db.Begin()
}

func (c *conn) getSchemaVersion() int {
	var version int
	err := c.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

func (c *conn) migrate(migrations []migration) error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion := c.getSchemaVersion()

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		tx, err := c.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
		}

		for _, s := range m.sqls {
			if _, err := tx.Exec(s); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
		}

		if _, err := tx.Exec(c.q("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)"),
			m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
