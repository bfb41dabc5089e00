package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bakert/surveilrise/internal/db"
)

// DefaultPageSize is the number of cards on a results page.
const DefaultPageSize = 60

var ErrMissingQuery = errors.New("missing query")

// SearchOptions selects a page of results for a query string.
type SearchOptions struct {
	Query    string
	Page     int // 1-based; anything lower means the first page
	PageSize int // zero means DefaultPageSize
}

// SearchResult is one page of matching cards.
type SearchResult struct {
	Query    string     `json:"query"`
	Cards    []*db.Card `json:"cards"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Pages    int        `json:"pages"`
}

// Execute compiles and runs a search query.
func Execute(store db.Store, opts SearchOptions) (*SearchResult, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, ErrMissingQuery
	}

	q, err := Compile(opts.Query)
	if err != nil {
		return nil, err
	}

	result, err := Run(store, q, opts.Page, opts.PageSize)
	if err != nil {
		return nil, err
	}
	result.Query = opts.Query
	return result, nil
}

// Run executes a compiled query: it counts every match, then loads one page
// ordered by name with each card's printings attached newest first.
func Run(store db.Store, q *Query, page, pageSize int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	where, args, err := ToSQL(q.Where, store.Dialect())
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	if where != "" {
		where = " WHERE " + where
	}

	result := &SearchResult{Page: page, PageSize: pageSize, Cards: []*db.Card{}}

	if err := store.QueryRow("SELECT COUNT(*) FROM cards c"+where, args...).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("failed to count cards: %w", err)
	}
	result.Pages = (result.Total + pageSize - 1) / pageSize

	sql := "SELECT " + db.CardColumns + " FROM cards c" + where + " ORDER BY c.name ASC, c.oracle_id ASC LIMIT ? OFFSET ?"
	rows, err := store.Query(sql, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		card, err := db.ScanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		result.Cards = append(result.Cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}

	if q.Include != nil {
		if err := attachPrintings(store, result.Cards, q.Include.Printings); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func attachPrintings(store db.Store, cards []*db.Card, inc PrintingsInclude) error {
	if len(cards) == 0 {
		return nil
	}

	byID := make(map[string]*db.Card, len(cards))
	placeholders := make([]string, 0, len(cards))
	args := make([]interface{}, 0, len(cards))
	for _, card := range cards {
		byID[card.OracleID] = card
		placeholders = append(placeholders, "?")
		args = append(args, card.OracleID)
	}

	sql := "SELECT " + db.PrintingColumns + " FROM printings p WHERE p.oracle_id IN (" + strings.Join(placeholders, ", ") + ")"
	if inc.Where != nil {
		clause, a, err := PrintingSQL(*inc.Where, store.Dialect())
		if err != nil {
			return fmt.Errorf("failed to build printings filter: %w", err)
		}
		if clause != "" {
			sql += " AND " + clause
			args = append(args, a...)
		}
	}
	sql += " ORDER BY " + orderSQL(inc.OrderBy)

	rows, err := store.Query(sql, args...)
	if err != nil {
		return fmt.Errorf("failed to load printings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := db.ScanPrinting(rows)
		if err != nil {
			return fmt.Errorf("failed to scan printing: %w", err)
		}
		if card := byID[p.OracleID]; card != nil {
			card.Printings = append(card.Printings, p)
			if card.ImageURL == nil {
				card.ImageURL = p.ImageURL
			}
		}
	}
	return rows.Err()
}

var printingOrderColumns = map[string]string{
	"releasedAt":      "p.released_at",
	"setCode":         "p.set_code",
	"collectorNumber": "p.collector_number",
}

func orderSQL(order []OrderBy) string {
	var parts []string
	for _, o := range order {
		column, ok := printingOrderColumns[o.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if strings.EqualFold(o.Direction, "desc") {
			dir = "DESC"
		}
		parts = append(parts, column+" "+dir)
	}
	parts = append(parts, "p.set_code ASC", "p.collector_number ASC")
	return strings.Join(parts, ", ")
}
