package query

import (
	"fmt"
	"strings"
)

type lexMode int

const (
	modeExpression lexMode = iota // expecting a key, boolean, group or bare word
	modeOperator                  // a key was read
	modeTerm                      // an operator was read
	modeUnquoted
	modeQuoted
	modeRegex
)

func (m lexMode) String() string {
	switch m {
	case modeExpression:
		return "expression"
	case modeOperator:
		return "operator"
	case modeTerm:
		return "term"
	case modeUnquoted:
		return "unquoted string"
	case modeQuoted:
		return "quoted string"
	case modeRegex:
		return "regex"
	default:
		return "unknown"
	}
}

type lexer struct {
	query   string // lowercased; error positions index into it
	input   string // query with a trailing space
	pos     int
	mode    lexMode
	groups  [][]Item // groups[0] is the top level; the last entry is open
	buf     strings.Builder
	escaped bool
}

// Parse lexes a search query into its top-level Expression. Parenthesised
// groups become nested Expressions. The whole query is lowercased first, so
// keys, keywords and values (quoted or not) are case-insensitive.
//
// An empty query yields an empty Expression.
func Parse(query string) (*Expression, error) {
	lowered := strings.ToLower(query)
	l := &lexer{
		query:  lowered,
		input:  lowered + " ",
		groups: [][]Item{nil},
	}

	for l.pos < len(l.input) {
		var err error
		switch l.mode {
		case modeExpression:
			err = l.lexExpression()
		case modeOperator:
			err = l.lexOperator()
		case modeTerm:
			err = l.lexTerm()
		case modeUnquoted:
			l.lexUnquoted()
		case modeQuoted:
			l.lexQuoted()
		case modeRegex:
			l.lexRegex()
		default:
			err = l.errorf("bad lexer mode %s", l.mode)
		}
		if err != nil {
			return nil, err
		}
	}

	return l.finish()
}

func (l *lexer) lexExpression() error {
	c := l.input[l.pos]
	rest := l.input[l.pos:]

	switch {
	case c == '(':
		l.groups = append(l.groups, nil)
		l.pos++
	case c == ')':
		if len(l.groups) == 1 {
			return l.errorf("unexpected closing parenthesis")
		}
		inner := l.groups[len(l.groups)-1]
		l.groups = l.groups[:len(l.groups)-1]
		l.emit(&Expression{Items: inner})
		l.pos++
	case matchCriterion(rest):
		k := matchKey(rest)
		l.emit(Key{Val: k})
		l.pos += len(k)
		l.mode = modeOperator
	case matchBoolean(rest) != "":
		b := matchBoolean(rest)
		l.emit(BooleanOperator{Val: b})
		l.pos += len(b)
	case c == '"':
		l.buf.Reset()
		l.mode = modeQuoted
		l.pos++
	case isSpace(c):
		l.pos++
	default:
		l.buf.Reset()
		l.buf.WriteByte(c)
		l.mode = modeUnquoted
		l.pos++
	}
	return nil
}

func (l *lexer) lexOperator() error {
	op := matchOperator(l.input[l.pos:])
	if op == "" {
		return l.errorf("expected operator, got %q", l.input[l.pos])
	}
	l.emit(Operator{Val: op})
	l.pos += len(op)
	l.mode = modeTerm
	return nil
}

func (l *lexer) lexTerm() error {
	c := l.input[l.pos]
	switch {
	case c == '"':
		l.buf.Reset()
		l.mode = modeQuoted
	case c == '/':
		l.buf.Reset()
		l.mode = modeRegex
	case isSpace(c) || c == ')':
		if l.pos == len(l.input)-1 {
			return l.errorf("reached end of query without finding a value after operator")
		}
		return l.errorf("empty value after operator")
	default:
		l.buf.Reset()
		l.buf.WriteByte(c)
		l.mode = modeUnquoted
	}
	l.pos++
	return nil
}

func (l *lexer) lexUnquoted() {
	c := l.input[l.pos]
	switch {
	case isSpace(c):
		l.emitString(false)
		l.pos++
	case c == ')':
		// Leave the parenthesis for lexExpression to close the group.
		l.emitString(false)
	default:
		l.buf.WriteByte(c)
		l.pos++
	}
}

func (l *lexer) lexQuoted() {
	c := l.input[l.pos]
	l.pos++
	if l.escaped {
		l.escaped = false
		if c != '"' && c != '\\' {
			l.buf.WriteByte('\\')
		}
		l.buf.WriteByte(c)
		return
	}
	switch c {
	case '\\':
		l.escaped = true
	case '"':
		l.emitString(false)
	default:
		l.buf.WriteByte(c)
	}
}

// lexRegex keeps escapes verbatim for the regexp engine; only an unescaped
// slash ends the literal.
func (l *lexer) lexRegex() {
	c := l.input[l.pos]
	l.pos++
	if l.escaped {
		l.escaped = false
		l.buf.WriteByte('\\')
		l.buf.WriteByte(c)
		return
	}
	switch c {
	case '\\':
		l.escaped = true
	case '/':
		l.emitString(true)
	default:
		l.buf.WriteByte(c)
	}
}

func (l *lexer) finish() (*Expression, error) {
	end := len(l.query)
	switch l.mode {
	case modeQuoted:
		return nil, l.errorAt(end, "reached end of query without finding the end of a quoted string")
	case modeRegex:
		return nil, l.errorAt(end, "reached end of query without finding the end of a regular expression")
	case modeTerm:
		return nil, l.errorAt(end, "reached end of query without finding a value after operator")
	case modeOperator:
		return nil, l.errorAt(end, "reached end of query without finding an operator after key")
	case modeUnquoted:
		l.emitString(false)
	}
	if len(l.groups) != 1 {
		return nil, l.errorAt(end, "reached end of query without finding enough closing parentheses")
	}
	return &Expression{Items: l.groups[0]}, nil
}

func (l *lexer) emit(it Item) {
	top := len(l.groups) - 1
	l.groups[top] = append(l.groups[top], it)
}

func (l *lexer) emitString(regex bool) {
	l.emit(StringToken{Val: l.buf.String(), Regex: regex})
	l.buf.Reset()
	l.mode = modeExpression
}

func (l *lexer) errorf(format string, args ...any) error {
	return l.errorAt(l.pos, fmt.Sprintf(format, args...))
}

func (l *lexer) errorAt(pos int, reason string) error {
	return &SyntaxError{Pos: pos, Query: l.query, Reason: reason}
}
