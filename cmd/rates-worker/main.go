package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"duit/internal/cache"
	"duit/internal/cli"
	"duit/internal/rates"
)

// currenciesToWarm lists the foreign currencies re-quoted on every tick.
// It mirrors the static fallback table so a cold cache never forces a
// lookup to the fallback path for common currencies.
func currenciesToWarm() []string {
	fallback := rates.DefaultFallback()
	currencies := make([]string, 0, len(fallback))
	for currency := range fallback {
		currencies = append(currencies, currency)
	}
	return currencies
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting rates-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	resolver := rates.NewResolver(
		rates.NewAPIQuoter(cfg.RateAPIURL, cfg.RateAPIKey),
		rates.Options{CacheTTL: cfg.RateCacheTTL, CacheSize: cfg.RateCacheSize},
	)

	cacheManager := cache.NewManager()
	cacheManager.Register(resolver)
	cacheManager.StartCleanup(cfg.RateCacheTTL / 2)
	defer cacheManager.Stop()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	warm := func() {
		warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		resolver.Warm(warmCtx, currenciesToWarm(), cfg.SettlementCurrency)
		logger.Info("Rate cache warmed",
			"pairs", len(resolver.CachedRates()),
			"settlement", cfg.SettlementCurrency)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RatesCronSpec, warm); err != nil {
		logger.Error("Invalid cron spec", "spec", cfg.RatesCronSpec, "error", err)
		os.Exit(1)
	}

	// Warm once at startup so the first tick is not an hour away.
	warm()

	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("Rate refresh scheduled", "spec", cfg.RatesCronSpec)

	cli.WaitForShutdown(ctx, done)
}
