package scryfall

import (
	"fmt"
	"log"
	"time"

	"github.com/bakert/surveilrise/internal/db"
)

// DefaultBatchSize is how many printings are written per transaction.
const DefaultBatchSize = 1000

// QuickLimit is how many printings a quick import reads.
const QuickLimit = 2000

// ImportOptions controls an import.
type ImportOptions struct {
	Source    string // recorded on the ingest run
	UpdatedAt string // upstream timestamp, stored as the last update; empty for local or partial imports
	BatchSize int
	Logf      func(format string, args ...interface{})
}

// ImportResult summarises a finished import.
type ImportResult struct {
	RunID     string `json:"run_id"`
	Cards     int    `json:"cards"`
	Printings int    `json:"printings"`
}

// Import writes entries to the store in batches. Entries sharing an oracle id
// collapse into one card carrying all of their printings.
func Import(store db.Store, entries []Entry, opts ImportOptions) (*ImportResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	if opts.Source == "" {
		opts.Source = DefaultCards
	}

	run, err := store.StartIngestRun(opts.Source)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	result := &ImportResult{RunID: run.ID}

	for start := 0; start < len(entries); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(entries) {
			end = len(entries)
		}

		batch := group(entries[start:end])
		if err := store.UpsertCards(batch); err != nil {
			return nil, fmt.Errorf("failed to import batch at %d: %w", start, err)
		}

		for _, in := range batch {
			if !seen[in.Card.OracleID] {
				seen[in.Card.OracleID] = true
				result.Cards++
			}
			result.Printings += len(in.Printings)
		}
		opts.Logf("Processed %d of %d cards", end, len(entries))
	}

	if err := store.FinishIngestRun(run.ID, result.Cards, result.Printings); err != nil {
		return nil, err
	}

	// Without an upstream timestamp the stored data no longer matches any
	// upstream version, so the old one is cleared.
	if err := store.SetMeta(db.MetaLastUpdated, opts.UpdatedAt); err != nil {
		return nil, err
	}
	if err := store.SetMeta(db.MetaImportedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	if err := store.SetMeta(db.MetaSource, opts.Source); err != nil {
		return nil, err
	}

	return result, nil
}

// group folds printings of the same card together, keeping the card data of
// the first one seen.
func group(entries []Entry) []db.CardInput {
	var out []db.CardInput
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Card.OracleID]
		if !ok {
			i = len(out)
			index[e.Card.OracleID] = i
			out = append(out, db.CardInput{Card: e.Card, Legalities: e.Legalities})
		}
		out[i].Printings = append(out[i].Printings, e.Printing)
	}
	return out
}
