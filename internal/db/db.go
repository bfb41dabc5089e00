package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"modernc.org/sqlite"
)

// DB is the local SQLite card store.
type DB struct {
	*conn
}

// maxPatterns bounds the compiled regexp cache. Past it the cache starts over.
const maxPatterns = 256

var patterns = &patternCache{res: make(map[string]*regexp.Regexp)}

type patternCache struct {
	mu  sync.Mutex
	res map[string]*regexp.Regexp
}

func (c *patternCache) get(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.res[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	if len(c.res) >= maxPatterns {
		clear(c.res)
	}
	c.res[pattern] = re
	return re, nil
}

func (c *patternCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.res)
}

func init() {
	// SQLite parses "x REGEXP y" as regexp(y, x) but ships no implementation.
	sqlite.MustRegisterDeterministicScalarFunction("regexp", 2, matchRegexp)
	// The built-in LOWER folds ASCII only.
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1, casefold)
}

func matchRegexp(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, ok := textArg(args[0])
	if !ok {
		return nil, nil
	}
	s, ok := textArg(args[1])
	if !ok {
		return int64(0), nil
	}

	re, err := patterns.get(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression %q: %w", pattern, err)
	}
	if re.MatchString(s) {
		return int64(1), nil
	}
	return int64(0), nil
}

func casefold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	s, ok := textArg(args[0])
	if !ok {
		return nil, nil
	}
	return strings.ToLower(s), nil
}

func textArg(v driver.Value) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

// Open opens (or creates) the SQLite database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set PRAGMAs explicitly (modernc driver doesn't support DSN query params)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	d := &DB{conn: &conn{db: sqlDB, dialect: SQLite}}
	if err := d.migrate(sqliteMigrations); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

var sqliteMigrations = []migration{
	{1, []string{
		`CREATE TABLE IF NOT EXISTS cards (
			oracle_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			mana_cost TEXT,
			type_line TEXT NOT NULL DEFAULT '',
			oracle_text TEXT,
			colors TEXT NOT NULL DEFAULT '',
			power TEXT,
			power_value REAL,
			toughness TEXT,
			toughness_value REAL,
			mana_value REAL NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_name ON cards(name)`,
		`CREATE TABLE IF NOT EXISTS legalities (
			oracle_id TEXT NOT NULL,
			format TEXT NOT NULL,
			legal INTEGER NOT NULL,
			PRIMARY KEY (oracle_id, format),
			FOREIGN KEY (oracle_id) REFERENCES cards(oracle_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_legalities_format ON legalities(format, legal)`,
		`CREATE TABLE IF NOT EXISTS printings (
			id TEXT PRIMARY KEY,
			oracle_id TEXT NOT NULL,
			set_code TEXT NOT NULL,
			collector_number TEXT NOT NULL,
			released_at TEXT NOT NULL,
			rarity TEXT NOT NULL DEFAULT '',
			image_url TEXT,
			artist TEXT NOT NULL DEFAULT '',
			usd REAL,
			usd_foil REAL,
			usd_etched REAL,
			eur REAL,
			eur_foil REAL,
			tix REAL,
			FOREIGN KEY (oracle_id) REFERENCES cards(oracle_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_printings_oracle ON printings(oracle_id, released_at)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			cards INTEGER NOT NULL DEFAULT 0,
			printings INTEGER NOT NULL DEFAULT 0
		)`,
	}},
}
