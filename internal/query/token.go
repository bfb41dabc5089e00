package query

import (
	"sort"
	"strings"
)

// Token is one lexical unit of a search query. The set of implementations is
// closed: Key, Operator, StringToken and BooleanOperator.
type Token interface {
	Item
	token()
	Value() string
}

// Item is an element of an Expression: a Token or a nested *Expression.
type Item interface {
	item()
}

// Key is a field name such as "cmc" or "t".
type Key struct{ Val string }

// Operator is a comparison between a key and its value.
type Operator struct{ Val string }

// StringToken is a literal value. Regex marks a /pattern/ literal.
type StringToken struct {
	Val   string
	Regex bool
}

// BooleanOperator is "and", "or", "not" or the "-" prefix.
type BooleanOperator struct{ Val string }

func (Key) item()             {}
func (Operator) item()        {}
func (StringToken) item()     {}
func (BooleanOperator) item() {}

func (Key) token()             {}
func (Operator) token()        {}
func (StringToken) token()     {}
func (BooleanOperator) token() {}

func (k Key) Value() string         { return k.Val }
func (o Operator) Value() string    { return o.Val }
func (s StringToken) Value() string { return s.Val }

// Value returns "not" for the "-" prefix so callers only deal with one form.
func (b BooleanOperator) Value() string {
	if b.Val == "-" {
		return "not"
	}
	return b.Val
}

func (k Key) String() string             { return k.Val }
func (o Operator) String() string        { return o.Val }
func (b BooleanOperator) String() string { return strings.ToUpper(b.Value()) }

func (s StringToken) String() string {
	if s.Regex {
		return "/" + s.Val + "/"
	}
	return `"` + s.Val + `"`
}

var keys = longestFirst([]string{
	"coloridentity", "fulloracle", "commander", "supertype", "toughness",
	"identity", "playable", "produces", "edition", "subtype", "loyalty",
	"format", "oracle", "rarity", "artist", "color", "legal", "power",
	"super", "mana", "name", "text", "type", "cmc", "loy", "pow", "set",
	"sub", "tou", "cid", "not", "ci", "fo", "id", "mv", "is",
	"a", "c", "e", "f", "m", "o", "p", "r", "s", "t",
})

var operators = longestFirst([]string{"<=", ">=", ":", "!", "<", ">", "="})

var booleans = []string{"and", "or", "not", "-"}

// longestFirst orders values so that no entry is shadowed by one of its own
// prefixes.
func longestFirst(values []string) []string {
	out := append([]string(nil), values...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func matchPrefix(values []string, rest string) string {
	lower := strings.ToLower(rest)
	for _, v := range values {
		if strings.HasPrefix(lower, v) {
			return v
		}
	}
	return ""
}

// matchKey returns the longest key at the head of rest, or "".
func matchKey(rest string) string {
	return matchPrefix(keys, rest)
}

// matchOperator returns the longest operator at the head of rest, or "".
func matchOperator(rest string) string {
	return matchPrefix(operators, rest)
}

// matchBoolean returns the boolean operator at the head of rest, or "". Word
// forms must be followed by whitespace, "(" or the end of input so that "orc"
// and "notion" stay bare words.
func matchBoolean(rest string) string {
	lower := strings.ToLower(rest)
	for _, v := range booleans {
		if v == "-" {
			if strings.HasPrefix(lower, "-") {
				return v
			}
			continue
		}
		if strings.HasPrefix(lower, v) && (len(lower) == len(v) || isSpace(lower[len(v)]) || lower[len(v)] == '(') {
			return v
		}
	}
	return ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// matchCriterion reports whether rest starts with a key immediately followed
// by an operator. A key on its own is a bare word, not a criterion.
func matchCriterion(rest string) bool {
	k := matchKey(rest)
	if k == "" {
		return false
	}
	return matchOperator(rest[len(k):]) != ""
}
