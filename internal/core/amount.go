// Package core provides the domain types and amount/period parsing for the
// spending tracker.
//
// This file normalizes heterogeneous amounts, including Indonesian magnitude
// suffixes ("rb" = ribu = thousand, "jt" = juta = million), into decimal values.
package core

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// NormalizeAmount converts a value that may be numeric or a vernacular
// string into a non-negative decimal.
//
// Strings are stripped of whitespace and lowercased; a trailing "rb"
// multiplies the prefix by 1,000 and a trailing "jt" by 1,000,000.
//
// Examples:
//
//	NormalizeAmount("50rb")  -> 50000
//	NormalizeAmount("1.5jt") -> 1500000
//	NormalizeAmount(12.5)    -> 12.5
//	NormalizeAmount(nil)     -> 0
//
// It never fails: a missing or unparseable value degrades to 0, and callers
// treat 0 as "unset" where that matters.
func NormalizeAmount(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return nonNegative(val)
	case float64:
		return nonNegative(decimal.NewFromFloat(val))
	case float32:
		return nonNegative(decimal.NewFromFloat32(val))
	case int:
		return nonNegative(decimal.NewFromInt(int64(val)))
	case int64:
		return nonNegative(decimal.NewFromInt(val))
	case json.Number:
		return normalizeAmountString(val.String())
	case string:
		return normalizeAmountString(val)
	default:
		return decimal.Zero
	}
}

func normalizeAmountString(s string) decimal.Decimal {
	s = strings.ToLower(stripSpaces(s))
	if s == "" {
		return decimal.Zero
	}

	factor := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(s, "rb"):
		factor = thousand
		s = strings.TrimSuffix(s, "rb")
	case strings.HasSuffix(s, "jt"):
		factor = million
		s = strings.TrimSuffix(s, "jt")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return nonNegative(d.Mul(factor))
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
