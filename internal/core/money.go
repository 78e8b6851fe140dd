// Package core provides numeric input parsing for amounts and ids.
//
// Amounts are kept as float64 throughout the ledger; this file only turns
// user input into numbers and back into display strings.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a decimal string to a float64.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Sign is
// not restricted: the ledger records whatever amount it is given. Returns
// ErrInvalidNumericInput for empty, malformed or non-finite input.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-5")    -> -5, nil
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidNumericInput
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidNumericInput
	}
	return v, nil
}

// ParseID converts a positive integer id typed by the user.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidNumericInput
	}
	return id, nil
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
