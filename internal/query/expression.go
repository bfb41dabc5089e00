package query

import "strings"

// Expression is one nesting level of a query: the top level or the inside of
// one pair of parentheses. Item order is significant.
type Expression struct {
	Items []Item
}

func (*Expression) item() {}

// NewExpression returns an Expression over the given items.
func NewExpression(items ...Item) *Expression {
	return &Expression{Items: items}
}

func (e *Expression) String() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		switch v := it.(type) {
		case *Expression:
			parts = append(parts, "("+v.String()+")")
		case Token:
			parts = append(parts, tokenString(v))
		}
	}
	return strings.Join(parts, " ")
}

func tokenString(t Token) string {
	if s, ok := t.(interface{ String() string }); ok {
		return s.String()
	}
	return t.Value()
}
