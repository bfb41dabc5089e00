package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DateLayout is how release dates are stored.
const DateLayout = "2006-01-02"

// ColorOrder is the canonical order colours are stored in.
const ColorOrder = "WUBRG"

// Card is one oracle card: the rules object shared by all of its printings.
type Card struct {
	OracleID       string      `json:"oracle_id"`
	Name           string      `json:"name"`
	ManaCost       *string     `json:"mana_cost,omitempty"`
	TypeLine       string      `json:"type_line"`
	OracleText     *string     `json:"oracle_text,omitempty"`
	Colors         []string    `json:"colors"`
	Power          *string     `json:"power,omitempty"`
	PowerValue     *float64    `json:"power_value,omitempty"`
	Toughness      *string     `json:"toughness,omitempty"`
	ToughnessValue *float64    `json:"toughness_value,omitempty"`
	ManaValue      float64     `json:"mana_value"`
	Printings      []*Printing `json:"printings,omitempty"`

	// ImageURL is the image of the newest attached printing that has one.
	ImageURL *string `json:"image_url,omitempty"`
}

// Printing is one release of a card in a set.
type Printing struct {
	ID              string    `json:"id"`
	OracleID        string    `json:"oracle_id"`
	SetCode         string    `json:"set_code"`
	CollectorNumber string    `json:"collector_number"`
	ReleasedAt      time.Time `json:"released_at"`
	Rarity          string    `json:"rarity"`
	ImageURL        *string   `json:"image_url,omitempty"`
	Artist          string    `json:"artist"`
	Prices          Prices    `json:"prices"`
}

type Prices struct {
	USD       *float64 `json:"usd,omitempty"`
	USDFoil   *float64 `json:"usd_foil,omitempty"`
	USDEtched *float64 `json:"usd_etched,omitempty"`
	EUR       *float64 `json:"eur,omitempty"`
	EURFoil   *float64 `json:"eur_foil,omitempty"`
	Tix       *float64 `json:"tix,omitempty"`
}

// Legality records whether a card may be played in a format.
type Legality struct {
	Format string `json:"format"`
	Legal  bool   `json:"legal"`
}

// CardInput is a card together with everything written alongside it.
type CardInput struct {
	Card       Card
	Legalities []Legality
	Printings  []Printing
}

// Column lists in the order ScanCard and ScanPrinting expect. Columns are
// qualified with the c and p aliases.
const (
	CardColumns = `c.oracle_id, c.name, c.mana_cost, c.type_line, c.oracle_text, c.colors,
		c.power, c.power_value, c.toughness, c.toughness_value, c.mana_value`
	PrintingColumns = `p.id, p.oracle_id, p.set_code, p.collector_number, p.released_at, p.rarity,
		p.image_url, p.artist, p.usd, p.usd_foil, p.usd_etched, p.eur, p.eur_foil, p.tix`
)

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...interface{}) error
}

// ScanCard reads a row selected with CardColumns.
func ScanCard(row RowScanner) (*Card, error) {
	card := &Card{}
	var manaCost, oracleText, power, toughness sql.NullString
	var powerValue, toughnessValue sql.NullFloat64
	var colors string

	err := row.Scan(&card.OracleID, &card.Name, &manaCost, &card.TypeLine, &oracleText, &colors,
		&power, &powerValue, &toughness, &toughnessValue, &card.ManaValue)
	if err != nil {
		return nil, err
	}

	card.ManaCost = nullString(manaCost)
	card.OracleText = nullString(oracleText)
	card.Power = nullString(power)
	card.Toughness = nullString(toughness)
	card.PowerValue = nullFloat(powerValue)
	card.ToughnessValue = nullFloat(toughnessValue)
	card.Colors = DecodeColors(colors)
	return card, nil
}

// ScanPrinting reads a row selected with PrintingColumns.
func ScanPrinting(row RowScanner) (*Printing, error) {
	p := &Printing{}
	var releasedAt string
	var imageURL sql.NullString
	var usd, usdFoil, usdEtched, eur, eurFoil, tix sql.NullFloat64

	err := row.Scan(&p.ID, &p.OracleID, &p.SetCode, &p.CollectorNumber, &releasedAt, &p.Rarity,
		&imageURL, &p.Artist, &usd, &usdFoil, &usdEtched, &eur, &eurFoil, &tix)
	if err != nil {
		return nil, err
	}

	p.ReleasedAt, _ = time.Parse(DateLayout, releasedAt)
	p.ImageURL = nullString(imageURL)
	p.Prices = Prices{
		USD:       nullFloat(usd),
		USDFoil:   nullFloat(usdFoil),
		USDEtched: nullFloat(usdEtched),
		EUR:       nullFloat(eur),
		EURFoil:   nullFloat(eurFoil),
		Tix:       nullFloat(tix),
	}
	return p, nil
}

// EncodeColors stores a colour set as a string in WUBRG order. Anything that
// is not a colour letter is dropped.
func EncodeColors(colors []string) string {
	var b strings.Builder
	for _, c := range ColorOrder {
		for _, have := range colors {
			if strings.EqualFold(have, string(c)) {
				b.WriteRune(c)
				break
			}
		}
	}
	return b.String()
}

func DecodeColors(s string) []string {
	colors := make([]string, 0, len(s))
	for _, c := range s {
		colors = append(colors, string(c))
	}
	return colors
}

// UpsertCards writes a batch of cards, replacing their legalities and
// upserting their printings, in one transaction.
func (c *conn) UpsertCards(cards []CardInput) error {
	if len(cards) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cardStmt, err := tx.Prepare(c.q(`INSERT INTO cards (oracle_id, name, mana_cost, type_line, oracle_text, colors,
			power, power_value, toughness, toughness_value, mana_value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (oracle_id) DO UPDATE SET
			name = excluded.name, mana_cost = excluded.mana_cost, type_line = excluded.type_line,
			oracle_text = excluded.oracle_text, colors = excluded.colors,
			power = excluded.power, power_value = excluded.power_value,
			toughness = excluded.toughness, toughness_value = excluded.toughness_value,
			mana_value = excluded.mana_value, updated_at = excluded.updated_at`))
	if err != nil {
		return fmt.Errorf("failed to prepare card upsert: %w", err)
	}
	defer cardStmt.Close()

	clearStmt, err := tx.Prepare(c.q(`DELETE FROM legalities WHERE oracle_id = ?`))
	if err != nil {
		return fmt.Errorf("failed to prepare legality delete: %w", err)
	}
	defer clearStmt.Close()

	legalStmt, err := tx.Prepare(c.q(`INSERT INTO legalities (oracle_id, format, legal) VALUES (?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare legality insert: %w", err)
	}
	defer legalStmt.Close()

	printStmt, err := tx.Prepare(c.q(`INSERT INTO printings (id, oracle_id, set_code, collector_number, released_at,
			rarity, image_url, artist, usd, usd_foil, usd_etched, eur, eur_foil, tix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			oracle_id = excluded.oracle_id, set_code = excluded.set_code,
			collector_number = excluded.collector_number, released_at = excluded.released_at,
			rarity = excluded.rarity, image_url = excluded.image_url, artist = excluded.artist,
			usd = excluded.usd, usd_foil = excluded.usd_foil, usd_etched = excluded.usd_etched,
			eur = excluded.eur, eur_foil = excluded.eur_foil, tix = excluded.tix`))
	if err != nil {
		return fmt.Errorf("failed to prepare printing upsert: %w", err)
	}
	defer printStmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, in := range cards {
		card := in.Card
		if card.OracleID == "" {
			return fmt.Errorf("card %q has no oracle id", card.Name)
		}
		_, err := cardStmt.Exec(card.OracleID, card.Name, card.ManaCost, card.TypeLine, card.OracleText,
			EncodeColors(card.Colors), card.Power, card.PowerValue, card.Toughness, card.ToughnessValue,
			card.ManaValue, now)
		if err != nil {
			return fmt.Errorf("failed to upsert card %s: %w", card.OracleID, err)
		}

		if _, err := clearStmt.Exec(card.OracleID); err != nil {
			return fmt.Errorf("failed to clear legalities for %s: %w", card.OracleID, err)
		}
		for _, l := range in.Legalities {
			if _, err := legalStmt.Exec(card.OracleID, strings.ToLower(l.Format), l.Legal); err != nil {
				return fmt.Errorf("failed to insert legality %s for %s: %w", l.Format, card.OracleID, err)
			}
		}

		for _, p := range in.Printings {
			_, err := printStmt.Exec(p.ID, card.OracleID, p.SetCode, p.CollectorNumber,
				p.ReleasedAt.Format(DateLayout), p.Rarity, p.ImageURL, p.Artist,
				p.Prices.USD, p.Prices.USDFoil, p.Prices.USDEtched, p.Prices.EUR, p.Prices.EURFoil, p.Prices.Tix)
			if err != nil {
				return fmt.Errorf("failed to upsert printing %s: %w", p.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cards: %w", err)
	}
	return nil
}

func (c *conn) GetCard(oracleID string) (*Card, error) {
	row := c.QueryRow(`SELECT `+CardColumns+` FROM cards c WHERE c.oracle_id = ?`, oracleID)
	card, err := ScanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card %s: %w", oracleID, err)
	}
	return card, nil
}

// FindCardByName looks a card up by its exact name, ignoring case.
func (c *conn) FindCardByName(name string) (*Card, error) {
	row := c.QueryRow(`SELECT `+CardColumns+` FROM cards c WHERE `+c.dialect.Lower("c.name")+` = ? ORDER BY c.name LIMIT 1`,
		strings.ToLower(name))
	card, err := ScanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find card %q: %w", name, err)
	}
	return card, nil
}

// GetPrintings returns a card's printings, newest first. A limit of zero or
// less returns all of them.
func (c *conn) GetPrintings(oracleID string, limit int) ([]*Printing, error) {
	query := `SELECT ` + PrintingColumns + ` FROM printings p WHERE p.oracle_id = ?
		ORDER BY p.released_at DESC, p.set_code, p.collector_number`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := c.Query(query, oracleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get printings for %s: %w", oracleID, err)
	}
	defer rows.Close()

	var printings []*Printing
	for rows.Next() {
		p, err := ScanPrinting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan printing: %w", err)
		}
		printings = append(printings, p)
	}
	return printings, rows.Err()
}

func (c *conn) GetLegalities(oracleID string) ([]Legality, error) {
	rows, err := c.Query(`SELECT format, legal FROM legalities WHERE oracle_id = ? ORDER BY format`, oracleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get legalities for %s: %w", oracleID, err)
	}
	defer rows.Close()

	var legalities []Legality
	for rows.Next() {
		var l Legality
		if err := rows.Scan(&l.Format, &l.Legal); err != nil {
			return nil, fmt.Errorf("failed to scan legality: %w", err)
		}
		legalities = append(legalities, l)
	}
	return legalities, rows.Err()
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}
