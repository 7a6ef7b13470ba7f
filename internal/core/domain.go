package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSettlementCurrency is the currency every persisted transaction
// amount is expressed in. Conversions from other currencies happen at
// extraction time; the original amount is kept for audit only.
const DefaultSettlementCurrency = "IDR"

// FallbackCategory is assigned when the oracle returns a label outside
// the closed vocabulary.
const FallbackCategory = "Other"

// FallbackName is assigned when the oracle returns no transaction name.
const FallbackName = "Unknown"

// AllowedCategories is the closed vocabulary the oracle is constrained to.
var AllowedCategories = []string{
	"Food",
	"Shopping",
	"Entertainment",
	"Transportation",
	"Utilities",
	"Rent",
	"Healthcare",
	"Education",
	"Travel",
	"Subscriptions",
	"Gifts",
	"Investments",
	"Taxes",
	"Insurance",
	"Savings",
	"Other",
}

// IsAllowedCategory reports whether name is a member of the closed
// vocabulary. Matching is exact and case-sensitive; category identity
// everywhere in this system is the exact name.
func IsAllowedCategory(name string) bool {
	for _, c := range AllowedCategories {
		if c == name {
			return true
		}
	}
	return false
}

var (
	// ErrNotFound and ErrForbidden carry the same surfaced message on
	// purpose: a caller addressing another user's record must not be able
	// to tell it apart from a record that does not exist.
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("record not found")

	ErrDuplicateBudget  = errors.New("budget already exists for this category and period")
	ErrCategoryConflict = errors.New("category already exists")
	ErrNoRate           = errors.New("no exchange rate available")
	ErrOracle           = errors.New("could not understand the input")
	ErrInvalidTimestamp = errors.New("invalid transaction timestamp")
)

type (
	Category struct {
		ID       string
		Name     string
		IsActive bool
	}

	// Transaction is a persisted spend. Amount is always in the settlement
	// currency; OriginalAmount/OriginalCurrency are set only when a
	// conversion happened and are never re-derived afterwards.
	Transaction struct {
		ID               string
		UserID           string
		Name             string
		Amount           decimal.Decimal
		Currency         string
		OriginalAmount   *decimal.Decimal
		OriginalCurrency string
		CategoryID       string
		CategoryName     string
		Datetime         time.Time
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	// Budget allocates an amount to one category for one accounting
	// period. Spent is not stored; it is aggregated from the transaction
	// set on every read.
	Budget struct {
		ID           string
		UserID       string
		CategoryID   string
		CategoryName string
		Amount       decimal.Decimal
		Period       string
		StartDate    time.Time
		EndDate      time.Time
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Draft is the normalized, not-yet-persisted output of the extractor.
	Draft struct {
		Name             string
		Amount           decimal.Decimal
		Currency         string
		OriginalAmount   *decimal.Decimal
		OriginalCurrency string
		ExchangeRate     *decimal.Decimal
		ConversionFailed bool
		Category         string
		Datetime         time.Time
	}
)

// Contains reports whether t falls inside the budget window, inclusive on
// both ends.
func (b Budget) Contains(t time.Time) bool {
	return !t.Before(b.StartDate) && !t.After(b.EndDate)
}

// Remaining is the unspent part of the allocation given a spent figure.
func (b Budget) Remaining(spent decimal.Decimal) decimal.Decimal {
	return b.Amount.Sub(spent)
}
