package db

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Meta keys. MetaLastUpdated holds the upstream timestamp of the data last
// imported, empty when that import had none. MetaImportedAt holds when the
// last import finished.
const (
	MetaLastUpdated = "last_updated"
	MetaImportedAt  = "imported_at"
	MetaSource      = "source"
)

// IngestRun records one import of card data.
type IngestRun struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Cards      int        `json:"cards"`
	Printings  int        `json:"printings"`
}

// Status summarises what the database holds.
type Status struct {
	Cards       int        `json:"cards"`
	Printings   int        `json:"printings"`
	Formats     int        `json:"formats"`
	LastUpdated string     `json:"last_updated,omitempty"`
	ImportedAt  string     `json:"imported_at,omitempty"`
	LastRun     *IngestRun `json:"last_run,omitempty"`
}

// NewID returns a new ULID. IDs sort by creation time.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func (c *conn) SetMeta(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := c.Exec(`INSERT INTO meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	if err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

func (c *conn) GetMeta(key string) (string, error) {
	var value string
	err := c.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return value, nil
}

func (c *conn) StartIngestRun(source string) (*IngestRun, error) {
	run := &IngestRun{
		ID:        NewID(),
		Source:    source,
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := c.Exec(`INSERT INTO ingest_runs (id, source, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Source, run.StartedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to start ingest run: %w", err)
	}
	return run, nil
}

// FinishIngestRun closes a run with its totals.
func (c *conn) FinishIngestRun(id string, cards, printings int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := c.Exec(`UPDATE ingest_runs SET finished_at = ?, cards = ?, printings = ? WHERE id = ?`,
		now, cards, printings, id)
	if err != nil {
		return fmt.Errorf("failed to finish ingest run %s: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// LastIngestRun returns the most recently started run.
func (c *conn) LastIngestRun() (*IngestRun, error) {
	run := &IngestRun{}
	var startedAt string
	var finishedAt sql.NullString
	err := c.QueryRow(`SELECT id, source, started_at, finished_at, cards, printings
		FROM ingest_runs ORDER BY id DESC LIMIT 1`).
		Scan(&run.ID, &run.Source, &startedAt, &finishedAt, &run.Cards, &run.Printings)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get last ingest run: %w", err)
	}

	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if finishedAt.Valid {
		t, _ := time.Parse(time.RFC3339, finishedAt.String)
		run.FinishedAt = &t
	}
	return run, nil
}

func (c *conn) Status() (*Status, error) {
	s := &Status{}
	for _, count := range []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM cards", &s.Cards},
		{"SELECT COUNT(*) FROM printings", &s.Printings},
		{"SELECT COUNT(DISTINCT format) FROM legalities", &s.Formats},
	} {
		if err := c.QueryRow(count.query).Scan(count.dest); err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}

	lastUpdated, err := c.GetMeta(MetaLastUpdated)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	s.LastUpdated = lastUpdated

	importedAt, err := c.GetMeta(MetaImportedAt)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	s.ImportedAt = importedAt

	run, err := c.LastIngestRun()
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	s.LastRun = run

	return s, nil
}
