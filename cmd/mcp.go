package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/bakert/surveilrise/internal/query"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for Claude Desktop and other MCP clients",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	s := server.NewMCPServer(
		"surveilrise",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	registerTools(s)

	return server.ServeStdio(s)
}

func registerTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("card_search",
		mcp.WithDescription("Search Magic cards with Scryfall syntax. Examples: 'c:r t:instant', 'f:modern cmc<=2', 'o:\"draw a card\" -c:u', 'a:guay'"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number (default: 1)"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Cards per page (default: 60)"),
		),
	), handleCardSearch)

	s.AddTool(mcp.NewTool("card_show",
		mcp.WithDescription("Show one card with its oracle text, legalities and most recent printings"),
		mcp.WithString("card",
			mcp.Required(),
			mcp.Description("Oracle id or exact card name"),
		),
	), handleCardShow)

	s.AddTool(mcp.NewTool("card_parse",
		mcp.WithDescription("Compile a search query to its JSON filter without running it; useful to check syntax"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
	), handleCardParse)

	s.AddTool(mcp.NewTool("card_status",
		mcp.WithDescription("Show how many cards and printings are loaded and when they were last updated"),
	), handleCardStatus)
}

func handleCardSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	store, err := openStore()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}
	defer store.Close()

	result, err := query.Execute(store, query.SearchOptions{
		Query:    q,
		Page:     req.GetInt("page", 1),
		PageSize: req.GetInt("page_size", query.DefaultPageSize),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
	}

	if result.Total == 0 {
		return mcp.NewToolResultText("No cards found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d card(s), page %d of %d:\n\n", result.Total, result.Page, result.Pages)
	for _, c := range result.Cards {
		fmt.Fprintf(&b, "- %s (%s)\n", cardLine(c), c.OracleID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleCardShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arg, err := req.RequireString("card")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	store, err := openStore()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}
	defer store.Close()

	card, err := findCard(store, arg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card.Printings, err = store.GetPrintings(card.OracleID, 5)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("printings error: %v", err)), nil
	}
	legalities, err := store.GetLegalities(card.OracleID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("legalities error: %v", err)), nil
	}

	return mcp.NewToolResultText(renderCard(card, legalities)), nil
}

func handleCardParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	compiled, err := query.Compile(q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, _ := json.MarshalIndent(compiled, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func handleCardStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := openStore()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}
	defer store.Close()

	status, err := store.Status()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status error: %v", err)), nil
	}

	data, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

// renderCard formats a card as markdown.
func renderCard(c *db.Card, legalities []db.Legality) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s", c.Name)
	if c.ManaCost != nil && *c.ManaCost != "" {
		fmt.Fprintf(&b, " %s", *c.ManaCost)
	}
	fmt.Fprintf(&b, "\n\n%s\n", c.TypeLine)
	if c.OracleText != nil && *c.OracleText != "" {
		fmt.Fprintf(&b, "\n%s\n", *c.OracleText)
	}
	if c.Power != nil && c.Toughness != nil {
		fmt.Fprintf(&b, "\n%s/%s\n", *c.Power, *c.Toughness)
	}

	var legal []string
	for _, l := range legalities {
		if l.Legal {
			legal = append(legal, l.Format)
		}
	}
	if len(legal) > 0 {
		fmt.Fprintf(&b, "\nLegal in: %s\n", strings.Join(legal, ", "))
	}

	if len(c.Printings) > 0 {
		b.WriteString("\nPrintings:\n")
		for _, p := range c.Printings {
			fmt.Fprintf(&b, "- %s #%s (%s), illustrated by %s\n",
				p.SetCode, p.CollectorNumber, p.ReleasedAt.Format(db.DateLayout), p.Artist)
		}
	}
	return b.String()
}
