package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/spf13/cobra"
)

var (
	dbPath string
	dbURL  string
	format string
)

var rootCmd = &cobra.Command{
	Use:   "surveilrise",
	Short: "Magic card search",
	Long:  "A CLI for importing Scryfall card data and searching it with Scryfall-style queries.",
}

func init() {
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".surveilrise", "cards.db")
	if envDB := os.Getenv("SURVEILRISE_DB"); envDB != "" {
		defaultDB = envDB
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Database file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", os.Getenv("SURVEILRISE_DB_URL"), "PostgreSQL connection string; overrides --db")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "Output format: text, json")
}

func Execute() error {
	return rootCmd.Execute()
}

// openStore opens PostgreSQL when a connection string is set, SQLite otherwise.
func openStore() (db.Store, error) {
	if dbURL != "" {
		s, err := db.OpenPostgres(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return s, nil
	}
	d, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return d, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
