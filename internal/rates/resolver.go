// Package rates resolves conversion rates between currency codes.
//
// A resolved rate is always "1 unit of from equals rate units of to".
// Quotes come from an external service and are cached for a TTL; when the
// service is unavailable the resolver falls back to a coarse static table.
package rates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"duit/internal/cache"
	"duit/internal/core"
	"duit/internal/log"
)

// Quoter obtains a fresh conversion rate from an external source.
type Quoter interface {
	Quote(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// DefaultFallback is the static rate table used when the quote service is
// unreachable. It is keyed by source currency only and assumes the target
// is the settlement currency (IDR); that coarseness is accepted.
func DefaultFallback() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(16460),
		"EUR": decimal.NewFromInt(17600),
		"SGD": decimal.NewFromInt(12150),
		"MYR": decimal.NewFromInt(3500),
		"GBP": decimal.NewFromInt(19400),
		"AUD": decimal.NewFromInt(10800),
		"JPY": decimal.NewFromInt(112),
		"CNY": decimal.NewFromInt(2260),
		"KRW": decimal.NewFromInt(12),
	}
}

// Options tune a Resolver. Zero values fall back to production defaults.
type Options struct {
	CacheTTL  time.Duration
	CacheSize int
	Clock     func() time.Time
	Fallback  map[string]decimal.Decimal
}

// Resolver answers rate lookups through a shared TTL cache. There is no
// per-pair locking: concurrent misses on the same pair may each hit the
// network, and the later idempotent cache write wins.
type Resolver struct {
	quoter   Quoter
	cache    *cache.LRUCache[decimal.Decimal]
	fallback map[string]decimal.Decimal
	logger   *log.Logger
}

func NewResolver(quoter Quoter, opts Options) *Resolver {
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 256
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Fallback == nil {
		opts.Fallback = DefaultFallback()
	}

	return &Resolver{
		quoter:   quoter,
		cache:    cache.NewLRUCacheWithClock[decimal.Decimal](opts.CacheSize, opts.CacheTTL, opts.Clock),
		fallback: opts.Fallback,
		logger:   log.New(log.DefaultConfig()).WithComponent(log.ComponentRates),
	}
}

// Rate resolves the conversion rate from one currency to another.
//
// Identical currencies short-circuit to 1 without touching the cache or the
// network. Otherwise the cache is consulted, then the quote service, then
// the static fallback. When all three come up empty the lookup fails with
// core.ErrNoRate; callers must never substitute a silent 1.
func (r *Resolver) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	key := cacheKey(from, to)
	if rate, ok := r.cache.Get(key); ok {
		return rate, nil
	}

	rate, err := r.quoter.Quote(ctx, from, to)
	if err == nil {
		r.cache.Set(key, rate)
		return rate, nil
	}

	r.logger.WarnContext(ctx, "Rate quote failed, consulting fallback table",
		log.FieldFromCurrency, from,
		log.FieldToCurrency, to,
		log.FieldError, err)

	if rate, ok := r.fallback[from]; ok {
		r.logger.WarnContext(ctx, "Using static fallback rate",
			log.FieldFromCurrency, from,
			log.FieldRate, rate.String(),
			log.FieldRateSource, "static")
		return rate, nil
	}

	return decimal.Zero, fmt.Errorf("%w for %s -> %s", core.ErrNoRate, from, to)
}

// Warm quotes each listed currency against the target and populates the
// cache. Individual failures are logged and skipped.
func (r *Resolver) Warm(ctx context.Context, currencies []string, to string) {
	to = strings.ToUpper(strings.TrimSpace(to))
	for _, from := range currencies {
		from = strings.ToUpper(strings.TrimSpace(from))
		if from == to {
			continue
		}

		rate, err := r.quoter.Quote(ctx, from, to)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping cache warm for pair",
				log.FieldFromCurrency, from,
				log.FieldToCurrency, to,
				log.FieldError, err)
			continue
		}

		r.cache.Set(cacheKey(from, to), rate)
		r.logger.InfoContext(ctx, "Warmed rate cache",
			log.FieldFromCurrency, from,
			log.FieldToCurrency, to,
			log.FieldRate, rate.String())
	}
}

// CachedRates returns a snapshot of the live cache entries keyed by
// "FROM_TO" pair.
func (r *Resolver) CachedRates() map[string]decimal.Decimal {
	snapshot := make(map[string]decimal.Decimal)
	for _, key := range r.cache.Keys() {
		if rate, ok := r.cache.Get(key); ok {
			snapshot[key] = rate
		}
	}
	return snapshot
}

// Refresh drops every cached rate so the next lookup re-quotes.
func (r *Resolver) Refresh() {
	r.cache.Clear()
}

// CleanExpired implements cache.Cleaner.
func (r *Resolver) CleanExpired() int {
	return r.cache.CleanExpired()
}

func cacheKey(from, to string) string {
	return from + "_" + to
}
