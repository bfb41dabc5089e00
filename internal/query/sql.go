package query

import (
	"fmt"
	"strings"

	"github.com/bakert/surveilrise/internal/db"
)

// matchNone renders a condition no row satisfies.
const matchNone = "1 = 0"

// ToSQL renders a card filter as a condition over the cards table aliased c,
// using ? placeholders. A filter that matches everything renders as "".
func ToSQL(w Where, d db.Dialect) (string, []interface{}, error) {
	var parts []string
	var args []interface{}

	add := func(clause string, a []interface{}, err error) error {
		if err != nil {
			return err
		}
		if clause != "" {
			parts = append(parts, clause)
			args = append(args, a...)
		}
		return nil
	}

	for _, sub := range w.AND {
		if err := add(ToSQL(sub, d)); err != nil {
			return "", nil, err
		}
	}
	if len(w.OR) > 0 {
		if err := add(orSQL(w.OR, d)); err != nil {
			return "", nil, err
		}
	}
	if w.NOT != nil {
		if err := add(notSQL(*w.NOT, d)); err != nil {
			return "", nil, err
		}
	}

	if w.Name != nil {
		if err := add(stringSQL("c.name", *w.Name, d)); err != nil {
			return "", nil, err
		}
	}
	if w.OracleText != nil {
		if err := add(stringSQL("COALESCE(c.oracle_text, '')", *w.OracleText, d)); err != nil {
			return "", nil, err
		}
	}
	if w.TypeLine != nil {
		if err := add(stringSQL("c.type_line", *w.TypeLine, d)); err != nil {
			return "", nil, err
		}
	}
	if w.Colors != nil {
		if err := add(colorSQL(*w.Colors)); err != nil {
			return "", nil, err
		}
	}
	if w.Legalities != nil {
		if err := add(legalitySQL(*w.Legalities)); err != nil {
			return "", nil, err
		}
	}
	for _, n := range []struct {
		column string
		filter *NumericFilter
	}{
		{"c.power_value", w.PowerValue},
		{"c.toughness_value", w.ToughnessValue},
		{"c.mana_value", w.ManaValue},
	} {
		if n.filter == nil {
			continue
		}
		if err := add(numericSQL(n.column, *n.filter)); err != nil {
			return "", nil, err
		}
	}
	if w.Printings != nil {
		if err := add(printingsSQL(*w.Printings, d)); err != nil {
			return "", nil, err
		}
	}

	return joinSQL(parts, " AND "), args, nil
}

func orSQL(ws []Where, d db.Dialect) (string, []interface{}, error) {
	var parts []string
	var args []interface{}
	for _, sub := range ws {
		clause, a, err := ToSQL(sub, d)
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			// One branch matches everything, so the disjunction does too.
			return "", nil, nil
		}
		parts = append(parts, clause)
		args = append(args, a...)
	}
	return joinSQL(parts, " OR "), args, nil
}

func notSQL(w Where, d db.Dialect) (string, []interface{}, error) {
	clause, args, err := ToSQL(w, d)
	if err != nil {
		return "", nil, err
	}
	if clause == "" {
		return matchNone, nil, nil
	}
	return "NOT (" + clause + ")", args, nil
}

func joinSQL(parts []string, sep string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, sep) + ")"
	}
}

func stringSQL(column string, f StringFilter, d db.Dialect) (string, []interface{}, error) {
	switch {
	case f.Matches != "":
		return d.Regexp(column), []interface{}{f.Matches}, nil
	case f.Contains != "":
		return d.Lower(column) + ` LIKE ? ESCAPE '\'`, []interface{}{"%" + escapeLike(strings.ToLower(f.Contains)) + "%"}, nil
	default:
		return "", nil, nil
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func numericSQL(column string, f NumericFilter) (string, []interface{}, error) {
	var parts []string
	var args []interface{}
	for _, cmp := range []struct {
		op    string
		value *float64
	}{
		{"=", f.Equals},
		{"<>", f.Not},
		{">", f.Gt},
		{">=", f.Gte},
		{"<", f.Lt},
		{"<=", f.Lte},
	} {
		if cmp.value == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s ?", column, cmp.op))
		args = append(args, *cmp.value)
	}
	return joinSQL(parts, " AND "), args, nil
}

// colorSQL tests the canonical colour string, which holds each colour letter
// at most once.
func colorSQL(f ColorFilter) (string, []interface{}, error) {
	var parts []string
	var args []interface{}

	for _, set := range [][]string{f.Equals, f.HasEvery, f.HasSome, f.None} {
		for _, c := range set {
			if !isColor(c) {
				return "", nil, fmt.Errorf("unknown color %q", c)
			}
		}
	}

	if f.Equals != nil {
		parts = append(parts, "c.colors = ?")
		args = append(args, db.EncodeColors(f.Equals))
	}
	for _, c := range f.HasEvery {
		parts = append(parts, "c.colors LIKE ?")
		args = append(args, "%"+c+"%")
	}
	if len(f.HasSome) > 0 {
		var some []string
		for _, c := range f.HasSome {
			some = append(some, "c.colors LIKE ?")
			args = append(args, "%"+c+"%")
		}
		parts = append(parts, joinSQL(some, " OR "))
	}
	for _, c := range f.None {
		parts = append(parts, "c.colors NOT LIKE ?")
		args = append(args, "%"+c+"%")
	}

	return joinSQL(parts, " AND "), args, nil
}

func legalitySQL(f LegalityFilter) (string, []interface{}, error) {
	return `EXISTS (SELECT 1 FROM legalities l WHERE l.oracle_id = c.oracle_id AND LOWER(l.format) = ? AND l.legal = ?)`,
		[]interface{}{strings.ToLower(f.Some.Format.Equals), f.Some.Legal}, nil
}

func printingsSQL(f PrintingsFilter, d db.Dialect) (string, []interface{}, error) {
	clause, args, err := PrintingSQL(f.Some, d)
	if err != nil {
		return "", nil, err
	}
	query := "EXISTS (SELECT 1 FROM printings p WHERE p.oracle_id = c.oracle_id"
	if clause != "" {
		query += " AND " + clause
	}
	return query + ")", args, nil
}

// PrintingSQL renders a printings filter as a condition over the printings
// table aliased p. A filter that matches everything renders as "".
func PrintingSQL(w PrintingWhere, d db.Dialect) (string, []interface{}, error) {
	var parts []string
	var args []interface{}

	for _, sub := range w.AND {
		clause, a, err := PrintingSQL(sub, d)
		if err != nil {
			return "", nil, err
		}
		if clause != "" {
			parts = append(parts, clause)
			args = append(args, a...)
		}
	}

	if len(w.OR) > 0 {
		var or []string
		var orArgs []interface{}
		everything := false
		for _, sub := range w.OR {
			clause, a, err := PrintingSQL(sub, d)
			if err != nil {
				return "", nil, err
			}
			if clause == "" {
				everything = true
				break
			}
			or = append(or, clause)
			orArgs = append(orArgs, a...)
		}
		if !everything {
			parts = append(parts, joinSQL(or, " OR "))
			args = append(args, orArgs...)
		}
	}

	if w.Artist != nil {
		clause, a, err := stringSQL("p.artist", *w.Artist, d)
		if err != nil {
			return "", nil, err
		}
		if clause != "" {
			parts = append(parts, clause)
			args = append(args, a...)
		}
	}

	return joinSQL(parts, " AND "), args, nil
}
