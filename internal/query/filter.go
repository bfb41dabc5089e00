package query

import "encoding/json"

// ModeInsensitive marks a string predicate as case-insensitive. Every string
// predicate the compiler produces uses it.
const ModeInsensitive = "insensitive"

// Colors is the colour alphabet in canonical order.
var Colors = []string{"W", "U", "B", "R", "G"}

// Query is a compiled search: the filter over cards plus which printings to
// attach to each matching card.
type Query struct {
	Where   Where    `json:"where"`
	Include *Include `json:"include,omitempty"`
}

// Where is one node of the card filter tree. A node carries either
// combinators (AND, OR, NOT) or a single field predicate.
type Where struct {
	AND []Where `json:"AND,omitempty"`
	OR  []Where `json:"OR,omitempty"`
	NOT *Where  `json:"NOT,omitempty"`

	Name           *StringFilter    `json:"name,omitempty"`
	OracleText     *StringFilter    `json:"oracleText,omitempty"`
	TypeLine       *StringFilter    `json:"typeLine,omitempty"`
	Colors         *ColorFilter     `json:"colors,omitempty"`
	Legalities     *LegalityFilter  `json:"legalities,omitempty"`
	PowerValue     *NumericFilter   `json:"powerValue,omitempty"`
	ToughnessValue *NumericFilter   `json:"toughnessValue,omitempty"`
	ManaValue      *NumericFilter   `json:"manaValue,omitempty"`
	Printings      *PrintingsFilter `json:"printings,omitempty"`
}

// IsEmpty reports whether w matches everything.
func (w Where) IsEmpty() bool {
	return len(w.AND) == 0 && len(w.OR) == 0 && w.NOT == nil && !w.hasPredicate()
}

func (w Where) hasPredicate() bool {
	return w.Name != nil || w.OracleText != nil || w.TypeLine != nil || w.Colors != nil ||
		w.Legalities != nil || w.PowerValue != nil || w.ToughnessValue != nil ||
		w.ManaValue != nil || w.Printings != nil
}

// StringFilter matches a text column by substring or by regular expression.
type StringFilter struct {
	Contains string `json:"contains,omitempty"`
	Matches  string `json:"matches,omitempty"`
	Mode     string `json:"mode"`
}

// EqualsFilter matches a text column exactly.
type EqualsFilter struct {
	Equals string `json:"equals"`
	Mode   string `json:"mode"`
}

// NumericFilter compares a numeric column. Exactly one field is set.
type NumericFilter struct {
	Equals *float64 `json:"equals,omitempty"`
	Not    *float64 `json:"not,omitempty"`
	Gt     *float64 `json:"gt,omitempty"`
	Gte    *float64 `json:"gte,omitempty"`
	Lt     *float64 `json:"lt,omitempty"`
	Lte    *float64 `json:"lte,omitempty"`
}

// ColorFilter tests the set of a card's colours.
type ColorFilter struct {
	Equals   []string `json:"equals,omitempty"`
	HasEvery []string `json:"hasEvery,omitempty"`
	HasSome  []string `json:"hasSome,omitempty"`
	None     []string `json:"none,omitempty"`
}

// LegalityFilter requires some legality record to match.
type LegalityFilter struct {
	Some LegalityWhere `json:"some"`
}

type LegalityWhere struct {
	Format EqualsFilter `json:"format"`
	Legal  bool         `json:"legal"`
}

// PrintingsFilter requires some printing of the card to match.
type PrintingsFilter struct {
	Some PrintingWhere `json:"some"`
}

// PrintingWhere filters printings. It is used both inside a card filter and
// to narrow the printings attached to results.
type PrintingWhere struct {
	AND    []PrintingWhere `json:"AND,omitempty"`
	OR     []PrintingWhere `json:"OR,omitempty"`
	Artist *StringFilter   `json:"artist,omitempty"`
}

// Include lists the related records to attach to each card.
type Include struct {
	Printings PrintingsInclude `json:"printings"`
}

// PrintingsInclude selects and orders the printings attached to a card. A nil
// Where attaches every printing.
type PrintingsInclude struct {
	Where   *PrintingWhere `json:"where,omitempty"`
	OrderBy []OrderBy      `json:"orderBy"`
}

// OrderBy is one sort key. It encodes as {"<field>": "<direction>"}.
type OrderBy struct {
	Field     string
	Direction string
}

func (o OrderBy) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{o.Field: o.Direction})
}

func (o *OrderBy) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for k, v := range m {
		o.Field, o.Direction = k, v
	}
	return nil
}

func newInclude(narrow *PrintingWhere) *Include {
	return &Include{Printings: PrintingsInclude{
		Where:   narrow,
		OrderBy: []OrderBy{{Field: "releasedAt", Direction: "desc"}},
	}}
}
