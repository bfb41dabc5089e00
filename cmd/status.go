package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	status, err := store.Status()
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return printJSON(status)
	default:
		if dbURL != "" {
			fmt.Printf("Database: %s\n", store.Dialect())
		} else {
			fmt.Printf("Database: %s", dbPath)
			if info, err := os.Stat(dbPath); err == nil {
				fmt.Printf(" (%.1f MB)", float64(info.Size())/(1024*1024))
			}
			fmt.Println()
		}
		fmt.Printf("Cards: %d\n", status.Cards)
		fmt.Printf("Printings: %d\n", status.Printings)
		fmt.Printf("Formats: %d\n", status.Formats)
		if status.LastUpdated != "" {
			fmt.Printf("Last updated: %s\n", status.LastUpdated)
		}
		if status.ImportedAt != "" {
			fmt.Printf("Imported at: %s\n", status.ImportedAt)
		}
		if run := status.LastRun; run != nil {
			fmt.Printf("Last import: %s from %s", run.StartedAt.Format("2006-01-02 15:04:05"), run.Source)
			if run.FinishedAt == nil {
				fmt.Print(" (unfinished)")
			} else {
				fmt.Printf(" (%d cards, %d printings)", run.Cards, run.Printings)
			}
			fmt.Println()
		}
	}

	return nil
}
