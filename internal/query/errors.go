package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSearch is the kind of every structural (lexing) error.
	ErrInvalidSearch = errors.New("invalid search")
	// ErrInvalidExpression is the kind of every semantic (building) error.
	ErrInvalidExpression = errors.New("invalid expression")
)

// SyntaxError reports a query that could not be lexed.
type SyntaxError struct {
	Pos    int    // byte offset into Query
	Query  string // the lowercased query that was lexed
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s at character %d in %q", ErrInvalidSearch, e.Reason, e.Pos, e.Query)
}

func (e *SyntaxError) Unwrap() error { return ErrInvalidSearch }

// ExpressionError reports a lexed query that does not compile to a filter.
type ExpressionError struct {
	Field  string // the key involved, if any
	Token  string // the offending token, if any
	Reason string
}

func (e *ExpressionError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrInvalidExpression, e.Reason)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Token != "" {
		msg += fmt.Sprintf(" (near %s)", e.Token)
	}
	return msg
}

func (e *ExpressionError) Unwrap() error { return ErrInvalidExpression }
