package cmd

import (
	"fmt"
	"strings"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/bakert/surveilrise/internal/query"
	"github.com/spf13/cobra"
)

var (
	searchPage     int
	searchPageSize int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cards",
	Long: `Search cards with a Scryfall-style query.

Examples:
  surveilrise search 'c:r t:instant'
  surveilrise search 'f:modern cmc<=2 (o:draw or o:discard)'
  surveilrise search --format json 'a:guay'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Page number")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", query.DefaultPageSize, "Cards per page")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := query.Execute(store, query.SearchOptions{
		Query:    strings.Join(args, " "),
		Page:     searchPage,
		PageSize: searchPageSize,
	})
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return printJSON(result)
	default:
		if len(result.Cards) == 0 {
			fmt.Println("No cards found.")
			return nil
		}
		for _, c := range result.Cards {
			fmt.Println(cardLine(c))
		}
		fmt.Printf("\n%d cards (page %d of %d)\n", result.Total, result.Page, result.Pages)
	}

	return nil
}

// cardLine renders a card as "Name {cost} · Type line [set]".
func cardLine(c *db.Card) string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.ManaCost != nil && *c.ManaCost != "" {
		fmt.Fprintf(&b, " %s", *c.ManaCost)
	}
	fmt.Fprintf(&b, " · %s", c.TypeLine)
	if len(c.Printings) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(printingSets(c.Printings), ", "))
	}
	return b.String()
}

func printingSets(printings []*db.Printing) []string {
	sets := make([]string, 0, len(printings))
	for _, p := range printings {
		sets = append(sets, p.SetCode)
	}
	return sets
}
