package query

import (
	"regexp"
	"strings"

	"github.com/bakert/surveilrise/internal/stat"
)

// Compile lexes and builds a search query.
func Compile(q string) (*Query, error) {
	expr, err := Parse(q)
	if err != nil {
		return nil, err
	}
	return Build(expr)
}

// Build compiles a lexed Expression into a Query. Each level is an implicit
// AND of its criteria; an OR splits the level into everything before it and
// everything after it. Build does not modify expr and may be called on the
// same Expression any number of times.
func Build(expr *Expression) (*Query, error) {
	if expr == nil {
		return &Query{Include: newInclude(nil)}, nil
	}
	where, narrow, err := build(expr.Items)
	if err != nil {
		return nil, err
	}
	return &Query{Where: where, Include: newInclude(narrow)}, nil
}

// build returns the filter for one level along with the printings filter
// implied by any artist criteria in it.
func build(items []Item) (Where, *PrintingWhere, error) {
	var and []Where
	var narrow []PrintingWhere

	for i := 0; i < len(items); i++ {
		if b, ok := items[i].(BooleanOperator); ok {
			switch b.Value() {
			case "or":
				if i == 0 {
					return Where{}, nil, &ExpressionError{Token: b.String(), Reason: "cannot start expression with boolean operator"}
				}
				if i == len(items)-1 {
					return Where{}, nil, &ExpressionError{Token: b.String(), Reason: "cannot end expression with boolean operator"}
				}
				right, rightNarrow, err := build(items[i+1:])
				if err != nil {
					return Where{}, nil, err
				}
				left := Where{AND: and}
				return Where{OR: []Where{left, right}}, orNarrowing(allOf(narrow), rightNarrow), nil

			case "and":
				if i == 0 {
					return Where{}, nil, &ExpressionError{Token: b.String(), Reason: "cannot start expression with boolean operator"}
				}
				if i == len(items)-1 {
					return Where{}, nil, &ExpressionError{Token: b.String(), Reason: "cannot end expression with boolean operator"}
				}

			case "not":
				if i == len(items)-1 {
					return Where{}, nil, &ExpressionError{Token: b.String(), Reason: "nothing to negate"}
				}
				// Negation covers exactly the next criterion, word or group.
				// Narrowing printings to a negated artist would hide every
				// printing, so the negated unit's narrowing is dropped.
				w, _, next, err := unit(items, i+1)
				if err != nil {
					return Where{}, nil, err
				}
				and = append(and, Where{NOT: &w})
				i = next - 1
			}
			continue
		}

		w, n, next, err := unit(items, i)
		if err != nil {
			return Where{}, nil, err
		}
		if _, group := items[i].(*Expression); group && isPlainAnd(w) {
			and = append(and, w.AND...)
		} else if !w.IsEmpty() {
			and = append(and, w)
		}
		if n != nil {
			narrow = append(narrow, *n)
		}
		i = next - 1
	}

	return Where{AND: and}, allOf(narrow), nil
}

// unit compiles the criterion, bare word or group starting at items[i] and
// returns the index just past it.
func unit(items []Item, i int) (Where, *PrintingWhere, int, error) {
	switch it := items[i].(type) {
	case *Expression:
		w, n, err := build(it.Items)
		return w, n, i + 1, err

	case Key:
		if i+2 >= len(items) {
			return Where{}, nil, 0, &ExpressionError{Field: it.Val, Reason: "invalid key-operator-value sequence"}
		}
		op, okOp := items[i+1].(Operator)
		val, okVal := items[i+2].(StringToken)
		if !okOp || !okVal {
			return Where{}, nil, 0, &ExpressionError{Field: it.Val, Reason: "invalid key-operator-value sequence"}
		}
		w, n, err := buildCriterion(it.Val, op.Val, val)
		return w, n, i + 3, err

	case StringToken:
		f, err := textFilter("name", it)
		if err != nil {
			return Where{}, nil, 0, err
		}
		return Where{Name: f}, nil, i + 1, nil

	case BooleanOperator:
		return Where{}, nil, 0, &ExpressionError{Token: it.String(), Reason: "unexpected boolean operator"}

	case Operator:
		return Where{}, nil, 0, &ExpressionError{Token: it.Val, Reason: "operator without a key"}

	default:
		return Where{}, nil, 0, &ExpressionError{Reason: "unexpected token"}
	}
}

func buildCriterion(field, op string, val StringToken) (Where, *PrintingWhere, error) {
	switch field {
	case "c", "color":
		f, err := colorFilter(op, val)
		return Where{Colors: f}, nil, err

	case "f", "format":
		if val.Regex {
			return Where{}, nil, &ExpressionError{Field: field, Token: val.String(), Reason: "format does not accept a regular expression"}
		}
		return Where{Legalities: &LegalityFilter{Some: LegalityWhere{
			Format: EqualsFilter{Equals: val.Val, Mode: ModeInsensitive},
			Legal:  true,
		}}}, nil, nil

	case "o", "oracle":
		f, err := textFilter(field, val)
		return Where{OracleText: f}, nil, err

	case "t", "type":
		f, err := textFilter(field, val)
		return Where{TypeLine: f}, nil, err

	case "pow", "power":
		f, err := numericFilter(field, op, val)
		return Where{PowerValue: f}, nil, err

	case "tou", "toughness":
		f, err := numericFilter(field, op, val)
		return Where{ToughnessValue: f}, nil, err

	case "mv", "cmc":
		f, err := numericFilter(field, op, val)
		return Where{ManaValue: f}, nil, err

	case "a", "artist":
		f, err := textFilter(field, val)
		if err != nil {
			return Where{}, nil, err
		}
		pw := PrintingWhere{Artist: f}
		return Where{Printings: &PrintingsFilter{Some: pw}}, &pw, nil

	default:
		return Where{}, nil, &ExpressionError{Field: field, Reason: "unknown field"}
	}
}

func textFilter(field string, val StringToken) (*StringFilter, error) {
	if !val.Regex {
		return &StringFilter{Contains: val.Val, Mode: ModeInsensitive}, nil
	}
	if _, err := regexp.Compile(val.Val); err != nil {
		return nil, &ExpressionError{Field: field, Token: val.String(), Reason: "invalid regular expression: " + err.Error()}
	}
	return &StringFilter{Matches: val.Val, Mode: ModeInsensitive}, nil
}

func numericFilter(field, op string, val StringToken) (*NumericFilter, error) {
	if val.Regex {
		return nil, &ExpressionError{Field: field, Token: val.String(), Reason: "numeric field does not accept a regular expression"}
	}
	n := stat.Parse(val.Val)
	switch op {
	case ":", "=":
		return &NumericFilter{Equals: &n}, nil
	case "!":
		return &NumericFilter{Not: &n}, nil
	case ">":
		return &NumericFilter{Gt: &n}, nil
	case ">=":
		return &NumericFilter{Gte: &n}, nil
	case "<":
		return &NumericFilter{Lt: &n}, nil
	case "<=":
		return &NumericFilter{Lte: &n}, nil
	default:
		return nil, &ExpressionError{Field: field, Token: op, Reason: "invalid numeric operator"}
	}
}

func colorFilter(op string, val StringToken) (*ColorFilter, error) {
	if val.Regex {
		return nil, &ExpressionError{Field: "color", Token: val.String(), Reason: "color does not accept a regular expression"}
	}
	set := map[string]bool{}
	for _, r := range strings.ToUpper(val.Val) {
		c := string(r)
		if !isColor(c) {
			return nil, &ExpressionError{Field: "color", Token: val.String(), Reason: "unknown color " + c}
		}
		set[c] = true
	}
	var in, out []string
	for _, c := range Colors {
		if set[c] {
			in = append(in, c)
		} else {
			out = append(out, c)
		}
	}
	if len(in) == 0 {
		return nil, &ExpressionError{Field: "color", Token: val.String(), Reason: "no colors given"}
	}

	switch op {
	case "=":
		return &ColorFilter{Equals: in}, nil
	case ":", ">=":
		return &ColorFilter{HasEvery: in}, nil
	case "<=":
		return &ColorFilter{HasSome: in, None: out}, nil
	default:
		return nil, &ExpressionError{Field: "color", Token: op, Reason: "invalid color operator"}
	}
}

func isColor(c string) bool {
	for _, k := range Colors {
		if c == k {
			return true
		}
	}
	return false
}

// isPlainAnd reports whether w is nothing but an AND list, so a group that
// compiled to it can be spliced into its parent.
func isPlainAnd(w Where) bool {
	return len(w.OR) == 0 && w.NOT == nil && !w.hasPredicate()
}

func allOf(ws []PrintingWhere) *PrintingWhere {
	switch len(ws) {
	case 0:
		return nil
	case 1:
		return &ws[0]
	default:
		return &PrintingWhere{AND: ws}
	}
}

// orNarrowing only narrows when both sides do: a card matched through the
// other branch must keep all of its printings.
func orNarrowing(left, right *PrintingWhere) *PrintingWhere {
	if left == nil || right == nil {
		return nil
	}
	return &PrintingWhere{OR: []PrintingWhere{*left, *right}}
}
