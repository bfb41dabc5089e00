package scryfall

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/bakert/surveilrise/internal/stat"
	"github.com/valyala/fastjson"
)

// Entry is one printing from a bulk file together with its oracle card.
type Entry struct {
	Card       db.Card
	Legalities []db.Legality
	Printing   db.Printing
}

// Decoded is the result of reading a bulk file.
type Decoded struct {
	Entries []Entry
	Skipped []string // names of entries without an oracle id
}

var parsers fastjson.ParserPool

// Decode reads a bulk file: a JSON array of card objects. A positive limit
// stops after that many elements.
func Decode(r io.Reader, limit int) (*Decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read bulk file: %w", err)
	}

	p := parsers.Get()
	defer parsers.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid bulk file: %w", err)
	}
	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("bulk file is not an array: %w", err)
	}

	out := &Decoded{}
	for i, val := range arr {
		if limit > 0 && i >= limit {
			break
		}
		entry, ok, err := decodeEntry(val)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		if !ok {
			out.Skipped = append(out.Skipped, string(val.GetStringBytes("name")))
			continue
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func decodeEntry(v *fastjson.Value) (Entry, bool, error) {
	if v.Type() != fastjson.TypeObject {
		return Entry{}, false, fmt.Errorf("expected object, got %s", v.Type())
	}

	faces := v.GetArray("card_faces")
	oracleID := str(v, "oracle_id")
	if oracleID == "" && len(faces) > 0 {
		// Reversible cards carry the oracle id on their faces.
		oracleID = str(faces[0], "oracle_id")
	}
	if oracleID == "" {
		return Entry{}, false, nil
	}

	card := db.Card{
		OracleID:   oracleID,
		Name:       str(v, "name"),
		ManaCost:   optional(v, faces, "mana_cost", " // "),
		TypeLine:   str(v, "type_line"),
		OracleText: optional(v, faces, "oracle_text", "\n//\n"),
		Colors:     colors(v, faces),
		Power:      firstFace(v, faces, "power"),
		Toughness:  firstFace(v, faces, "toughness"),
		ManaValue:  v.GetFloat64("cmc"),
	}
	card.PowerValue = stat.Value(card.Power)
	card.ToughnessValue = stat.Value(card.Toughness)

	var legalities []db.Legality
	if obj := v.GetObject("legalities"); obj != nil {
		obj.Visit(func(key []byte, status *fastjson.Value) {
			legalities = append(legalities, db.Legality{
				Format: string(key),
				Legal:  string(status.GetStringBytes()) == "legal",
			})
		})
	}

	released, err := time.Parse(db.DateLayout, str(v, "released_at"))
	if err != nil {
		return Entry{}, false, fmt.Errorf("invalid released_at for %s: %w", card.Name, err)
	}

	image := str(v, "image_uris", "border_crop")
	if image == "" && len(faces) > 0 {
		image = str(faces[0], "image_uris", "border_crop")
	}

	printing := db.Printing{
		ID:              str(v, "id"),
		OracleID:        oracleID,
		SetCode:         str(v, "set"),
		CollectorNumber: str(v, "collector_number"),
		ReleasedAt:      released,
		Rarity:          str(v, "rarity"),
		Artist:          str(v, "artist"),
		Prices: db.Prices{
			USD:       price(v, "usd"),
			USDFoil:   price(v, "usd_foil"),
			USDEtched: price(v, "usd_etched"),
			EUR:       price(v, "eur"),
			EURFoil:   price(v, "eur_foil"),
			Tix:       price(v, "tix"),
		},
	}
	if image != "" {
		printing.ImageURL = &image
	}
	if printing.ID == "" {
		return Entry{}, false, fmt.Errorf("printing of %s has no id", card.Name)
	}

	return Entry{Card: card, Legalities: legalities, Printing: printing}, true, nil
}

func str(v *fastjson.Value, keys ...string) string {
	return string(v.GetStringBytes(keys...))
}

// optional reads a nullable card field, falling back to joining the field
// across faces for multi-faced cards.
func optional(v *fastjson.Value, faces []*fastjson.Value, key, sep string) *string {
	if v.Exists(key) {
		s := str(v, key)
		return &s
	}
	var parts []string
	for _, f := range faces {
		if f.Exists(key) {
			parts = append(parts, str(f, key))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, sep)
	return &s
}

func firstFace(v *fastjson.Value, faces []*fastjson.Value, key string) *string {
	if v.Exists(key) {
		s := str(v, key)
		return &s
	}
	if len(faces) > 0 && faces[0].Exists(key) {
		s := str(faces[0], key)
		return &s
	}
	return nil
}

func colors(v *fastjson.Value, faces []*fastjson.Value) []string {
	var raw []string
	if v.Exists("colors") {
		for _, c := range v.GetArray("colors") {
			raw = append(raw, string(c.GetStringBytes()))
		}
	} else {
		for _, f := range faces {
			for _, c := range f.GetArray("colors") {
				raw = append(raw, string(c.GetStringBytes()))
			}
		}
	}
	return db.DecodeColors(db.EncodeColors(raw))
}

func price(v *fastjson.Value, key string) *float64 {
	s := str(v, "prices", key)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
