package cmd

import (
	"strings"

	"github.com/bakert/surveilrise/internal/query"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <query>",
	Short: "Print the filter a search query compiles to",
	Long: `Compile a Scryfall-style search query and print the resulting filter as
JSON without touching the database.

Example:
  surveilrise parse 'c:r t:instant -f:standard a:"rebecca guay"'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	q, err := query.Compile(strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printJSON(q)
}
