// Package stat normalizes power, toughness and similar textual card stats
// into comparable numbers.
package stat

import (
	"regexp"
	"strconv"
	"strings"
)

// Infinity is stored for the "∞" stat. It fits numeric(65,30) and float64, so
// comparisons against any realistic query value behave.
const Infinity = 1e34

var numberRe = regexp.MustCompile(`[+-]?\d*\.?\d+`)

// Value returns the numeric value of a raw stat. A nil input has no value and
// returns nil. Stats with no number in them (*, ?, *², "") are zero.
func Value(raw *string) *float64 {
	if raw == nil {
		return nil
	}
	v := Parse(*raw)
	return &v
}

// Parse is Value for a stat that is known to be present.
func Parse(s string) float64 {
	if s == "∞" {
		return Infinity
	}
	if s == "*" || s == "?" || strings.TrimSpace(s) == "" {
		return 0
	}
	m := numberRe.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}
