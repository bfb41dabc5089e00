package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/bakert/surveilrise/internal/scryfall"
	"github.com/spf13/cobra"
)

var (
	ingestQuick bool
	ingestForce bool
	ingestURL   string
	ingestCache string
	ingestBatch int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Import Scryfall card data",
	Long: `Import Scryfall's default_cards bulk data into the database.

Without a file argument the bulk data index is consulted, and the file is
downloaded into the cache directory (stored zstd-compressed) unless the
database already holds that version. A local file may be plain JSON, .gz,
or .zst.

--quick imports only the first 2000 printings, for trying things out.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	home, _ := os.UserHomeDir()
	ingestCmd.Flags().BoolVar(&ingestQuick, "quick", false, fmt.Sprintf("Import only the first %d printings", scryfall.QuickLimit))
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "Import even if the database is up to date")
	ingestCmd.Flags().StringVar(&ingestURL, "url", scryfall.BulkDataURL, "Bulk data index URL")
	ingestCmd.Flags().StringVar(&ingestCache, "cache", filepath.Join(home, ".surveilrise", "cache"), "Download cache directory")
	ingestCmd.Flags().IntVar(&ingestBatch, "batch-size", scryfall.DefaultBatchSize, "Printings per transaction")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := scryfall.ImportOptions{BatchSize: ingestBatch}
	var path string

	if len(args) == 1 {
		path = args[0]
		opts.Source = path
	} else {
		bulk, err := scryfall.FetchBulkData(ctx, http.DefaultClient, ingestURL, scryfall.DefaultCards)
		if err != nil {
			return err
		}

		last, err := store.GetMeta(db.MetaLastUpdated)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return err
		}
		if last == bulk.UpdatedAt && !ingestForce {
			fmt.Printf("Already up to date (%s).\n", last)
			return nil
		}

		path = filepath.Join(ingestCache, scryfall.DefaultCards+".json.zst")
		log.Printf("Downloading %s (%d bytes)", bulk.DownloadURI, bulk.Size)
		if _, err := scryfall.Download(ctx, http.DefaultClient, bulk.DownloadURI, path); err != nil {
			return err
		}

		opts.Source = bulk.DownloadURI
		// A partial import must not mark this version as done.
		if !ingestQuick {
			opts.UpdatedAt = bulk.UpdatedAt
		}
	}

	r, err := scryfall.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	limit := 0
	if ingestQuick {
		limit = scryfall.QuickLimit
	}
	decoded, err := scryfall.Decode(r, limit)
	if err != nil {
		return err
	}
	if n := len(decoded.Skipped); n > 0 {
		log.Printf("Skipped %d entries without an oracle id", n)
	}

	result, err := scryfall.Import(store, decoded.Entries, opts)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return printJSON(result)
	default:
		fmt.Printf("Imported %d cards (%d printings) [run %s]\n", result.Cards, result.Printings, result.RunID)
	}
	return nil
}
