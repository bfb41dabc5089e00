package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/spf13/cobra"
)

var showPrintings int

var showCmd = &cobra.Command{
	Use:   "show <oracle-id|name>",
	Short: "Show a card",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVar(&showPrintings, "printings", 10, "Max printings to list (0 for all)")
	rootCmd.AddCommand(showCmd)
}

// findCard looks arg up as an oracle id first, then as an exact card name.
func findCard(store db.Store, arg string) (*db.Card, error) {
	card, err := store.GetCard(arg)
	if errors.Is(err, db.ErrNotFound) {
		card, err = store.FindCardByName(arg)
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("no card matches %q", arg)
	}
	return card, err
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	card, err := findCard(store, strings.Join(args, " "))
	if err != nil {
		return err
	}
	card.Printings, err = store.GetPrintings(card.OracleID, showPrintings)
	if err != nil {
		return err
	}
	if len(card.Printings) > 0 {
		card.ImageURL = card.Printings[0].ImageURL
	}
	legalities, err := store.GetLegalities(card.OracleID)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return printJSON(map[string]interface{}{
			"card":       card,
			"legalities": legalities,
		})
	default:
		fmt.Printf("Name:      %s\n", card.Name)
		fmt.Printf("Oracle ID: %s\n", card.OracleID)
		if card.ManaCost != nil {
			fmt.Printf("Cost:      %s (mana value %g)\n", *card.ManaCost, card.ManaValue)
		}
		fmt.Printf("Type:      %s\n", card.TypeLine)
		if card.Power != nil && card.Toughness != nil {
			fmt.Printf("P/T:       %s/%s\n", *card.Power, *card.Toughness)
		}
		if card.OracleText != nil && *card.OracleText != "" {
			fmt.Printf("\n%s\n\n", *card.OracleText)
		}

		var legal []string
		for _, l := range legalities {
			if l.Legal {
				legal = append(legal, l.Format)
			}
		}
		if len(legal) > 0 {
			fmt.Printf("Legal in:  %s\n", strings.Join(legal, ", "))
		}

		if len(card.Printings) > 0 {
			fmt.Println("Printings:")
			for _, p := range card.Printings {
				fmt.Printf("  %s #%s  %s  %s  %s\n", p.SetCode, p.CollectorNumber,
					p.ReleasedAt.Format(db.DateLayout), p.Rarity, p.Artist)
			}
		}
	}

	return nil
}
