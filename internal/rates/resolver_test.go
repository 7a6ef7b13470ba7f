package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"duit/internal/core"
)

type fakeQuoter struct {
	rate  decimal.Decimal
	err   error
	calls int
}

func (q *fakeQuoter) Quote(ctx context.Context, from, to string) (decimal.Decimal, error) {
	q.calls++
	if q.err != nil {
		return decimal.Zero, q.err
	}
	return q.rate, nil
}

func TestResolver_SameCurrencySkipsNetwork(t *testing.T) {
	quoter := &fakeQuoter{rate: decimal.NewFromInt(99)}
	r := NewResolver(quoter, Options{})

	for _, pair := range []struct{ from, to string }{
		{"IDR", "IDR"},
		{"usd", "USD"},
		{" idr ", "IDR"},
	} {
		rate, err := r.Rate(context.Background(), pair.from, pair.to)
		if err != nil {
			t.Fatalf("Rate(%q, %q): %v", pair.from, pair.to, err)
		}
		if !rate.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Rate(%q, %q) = %s, want 1", pair.from, pair.to, rate)
		}
	}

	if quoter.calls != 0 {
		t.Errorf("quoter called %d times for identical currencies, want 0", quoter.calls)
	}
}

func TestResolver_CachesWithinTTL(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	quoter := &fakeQuoter{rate: decimal.NewFromInt(16460)}
	r := NewResolver(quoter, Options{
		CacheTTL: time.Hour,
		Clock:    func() time.Time { return now },
	})

	for i := 0; i < 3; i++ {
		rate, err := r.Rate(context.Background(), "USD", "IDR")
		if err != nil {
			t.Fatalf("Rate: %v", err)
		}
		if !rate.Equal(decimal.NewFromInt(16460)) {
			t.Errorf("Rate = %s, want 16460", rate)
		}
	}

	if quoter.calls != 1 {
		t.Errorf("quoter called %d times, want 1 (cached afterwards)", quoter.calls)
	}
}

func TestResolver_ExpiredEntryRefetches(t *testing.T) {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	quoter := &fakeQuoter{rate: decimal.NewFromInt(16460)}
	r := NewResolver(quoter, Options{
		CacheTTL: time.Hour,
		Clock:    func() time.Time { return now },
	})

	if _, err := r.Rate(context.Background(), "USD", "IDR"); err != nil {
		t.Fatalf("Rate: %v", err)
	}

	now = now.Add(2 * time.Hour)
	quoter.rate = decimal.NewFromInt(16500)

	rate, err := r.Rate(context.Background(), "USD", "IDR")
	if err != nil {
		t.Fatalf("Rate after expiry: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(16500)) {
		t.Errorf("Rate after expiry = %s, want fresh 16500", rate)
	}
	if quoter.calls != 2 {
		t.Errorf("quoter called %d times, want 2", quoter.calls)
	}
}

func TestResolver_FallbackOnQuoteFailure(t *testing.T) {
	quoter := &fakeQuoter{err: errors.New("network down")}
	r := NewResolver(quoter, Options{})

	rate, err := r.Rate(context.Background(), "USD", "IDR")
	if err != nil {
		t.Fatalf("Rate with fallback: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(16460)) {
		t.Errorf("fallback rate = %s, want 16460", rate)
	}
}

func TestResolver_NoRateAnywhere(t *testing.T) {
	quoter := &fakeQuoter{err: errors.New("network down")}
	r := NewResolver(quoter, Options{})

	_, err := r.Rate(context.Background(), "XXX", "IDR")
	if !errors.Is(err, core.ErrNoRate) {
		t.Errorf("error = %v, want core.ErrNoRate", err)
	}
}

func TestResolver_WarmAndIntrospect(t *testing.T) {
	quoter := &fakeQuoter{rate: decimal.NewFromInt(16460)}
	r := NewResolver(quoter, Options{})

	r.Warm(context.Background(), []string{"USD", "EUR", "IDR"}, "IDR")

	cached := r.CachedRates()
	if len(cached) != 2 {
		t.Fatalf("cached %d pairs, want 2 (IDR->IDR skipped): %v", len(cached), cached)
	}
	if _, ok := cached["USD_IDR"]; !ok {
		t.Error("USD_IDR missing from warmed cache")
	}

	// Warmed pairs must answer without another quote.
	before := quoter.calls
	if _, err := r.Rate(context.Background(), "EUR", "IDR"); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if quoter.calls != before {
		t.Error("warmed pair should not re-quote")
	}

	r.Refresh()
	if len(r.CachedRates()) != 0 {
		t.Error("Refresh should drop all cached rates")
	}
}
