// Package extract turns oracle output into a normalized transaction draft.
//
// Text and image inputs differ only in how the oracle is invoked; the
// validation and repair pipeline is shared by both modes.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"duit/internal/core"
	"duit/internal/log"
	"duit/internal/oracle"
)

// amountScale is the number of decimal places a converted amount is
// rounded to.
const amountScale = 2

// RateResolver is the slice of the rates resolver the extractor needs.
type RateResolver interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type Extractor struct {
	oracle     oracle.Oracle
	rates      RateResolver
	settlement string
	logger     *log.Logger
	now        func() time.Time
}

func New(o oracle.Oracle, rates RateResolver, settlementCurrency string) *Extractor {
	return &Extractor{
		oracle:     o,
		rates:      rates,
		settlement: strings.ToUpper(settlementCurrency),
		logger:     log.New(log.DefaultConfig()).WithComponent(log.ComponentExtractor),
		now:        time.Now,
	}
}

// FromText extracts a draft from a natural-language spending description.
func (e *Extractor) FromText(ctx context.Context, input string) (*core.Draft, error) {
	raw, err := e.oracle.ParseText(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("parse text: %w", err)
	}
	return e.repair(ctx, raw)
}

// FromImage extracts a draft from a receipt image.
func (e *Extractor) FromImage(ctx context.Context, image []byte, mimeType string) (*core.Draft, error) {
	raw, err := e.oracle.ParseImage(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("parse image: %w", err)
	}
	return e.repair(ctx, raw)
}

// repair applies the shared validation policy to a raw oracle answer:
// coerce out-of-vocabulary categories to the fallback, normalize the
// amount, convert foreign currencies to the settlement currency, derive a
// timestamp, and default the name. Only an unparseable timestamp fails.
func (e *Extractor) repair(ctx context.Context, raw *oracle.RawDraft) (*core.Draft, error) {
	draft := &core.Draft{
		Name:     strings.TrimSpace(raw.Name),
		Category: raw.Category,
		Amount:   core.NormalizeAmount(raw.Amount),
		Currency: strings.ToUpper(strings.TrimSpace(raw.Currency)),
	}

	if draft.Name == "" {
		draft.Name = core.FallbackName
	}
	if !core.IsAllowedCategory(draft.Category) {
		draft.Category = core.FallbackCategory
	}

	ts, err := e.deriveTimestamp(raw)
	if err != nil {
		return nil, err
	}
	draft.Datetime = ts

	e.convertCurrency(ctx, draft)

	return draft, nil
}

// convertCurrency settles a foreign-currency amount. Rate failure is not
// fatal: the draft keeps the unconverted amount and is marked so the
// caller can surface the degradation.
func (e *Extractor) convertCurrency(ctx context.Context, draft *core.Draft) {
	if draft.Currency == "" || draft.Currency == e.settlement {
		draft.Currency = e.settlement
		return
	}

	rate, err := e.rates.Rate(ctx, draft.Currency, e.settlement)
	if err != nil {
		e.logger.WarnContext(ctx, "Currency conversion failed, keeping original amount",
			log.FieldFromCurrency, draft.Currency,
			log.FieldToCurrency, e.settlement,
			log.FieldError, err)
		draft.ConversionFailed = true
		return
	}

	original := draft.Amount
	draft.OriginalAmount = &original
	draft.OriginalCurrency = draft.Currency
	draft.ExchangeRate = &rate
	draft.Amount = original.Mul(rate).Round(amountScale)
	draft.Currency = e.settlement
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
}

// deriveTimestamp prefers a full datetime, then a date plus optional time
// (midnight default), then the current instant. A field that is present
// but unparseable is the one hard failure of extraction.
func (e *Extractor) deriveTimestamp(raw *oracle.RawDraft) (time.Time, error) {
	if dt := strings.TrimSpace(raw.Datetime); dt != "" {
		for _, layout := range datetimeLayouts {
			if ts, err := time.Parse(layout, dt); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: datetime %q", core.ErrInvalidTimestamp, raw.Datetime)
	}

	if d := strings.TrimSpace(raw.Date); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: date %q", core.ErrInvalidTimestamp, raw.Date)
		}

		clock := strings.TrimSpace(raw.Time)
		if clock == "" {
			return day.UTC(), nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, clock); err == nil {
				return time.Date(day.Year(), day.Month(), day.Day(),
					t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: time %q", core.ErrInvalidTimestamp, raw.Time)
	}

	return e.now().UTC(), nil
}
