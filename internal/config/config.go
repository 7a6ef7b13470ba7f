package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// Oracle (Gemini)
	GeminiAPIKey string
	GeminiModel  string

	// Currency
	SettlementCurrency string
	RateAPIURL         string
	RateAPIKey         string
	RateCacheTTL       time.Duration
	RateCacheSize      int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Workers
	RatesCronSpec      string
	NotifyMaxAttempts  int
	NotifyRetryBackoff time.Duration
}

func Load() *Config {
	cfg := &Config{
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/duit.db"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		SettlementCurrency: getEnv("SETTLEMENT_CURRENCY", "IDR"),
		RateAPIURL:         getEnv("RATE_API_URL", "https://api.apilayer.com/exchangerates_data/latest"),
		RateAPIKey:         getEnv("RATE_API_KEY", ""),
		RateCacheTTL:       getEnvDuration("RATE_CACHE_TTL", time.Hour),
		RateCacheSize:      getEnvInt("RATE_CACHE_SIZE", 256),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "duit"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		RatesCronSpec:      getEnv("RATES_CRON_SPEC", "@hourly"),
		NotifyMaxAttempts:  getEnvInt("NOTIFY_MAX_ATTEMPTS", 3),
		NotifyRetryBackoff: getEnvDuration("NOTIFY_RETRY_BACKOFF", 2*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.GeminiModel == "" {
		errors = append(errors, "Gemini model name cannot be empty")
	}

	if len(c.SettlementCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid settlement currency '%s': must be a 3-letter code", c.SettlementCurrency))
	}

	if c.RateAPIURL != "" {
		if parsedURL, err := url.Parse(c.RateAPIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid rate API URL '%s': %v", c.RateAPIURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid rate API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.RateCacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate cache TTL %v: must be at least 1 minute", c.RateCacheTTL))
	}
	if c.RateCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate cache size %d: must be at least 1", c.RateCacheSize))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.NotifyMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("invalid notify max attempts %d: must be at least 1", c.NotifyMaxAttempts))
	} else if c.NotifyMaxAttempts > 10 {
		errors = append(errors, fmt.Sprintf("invalid notify max attempts %d: must be at most 10", c.NotifyMaxAttempts))
	}

	if c.NotifyRetryBackoff < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid notify retry backoff %v: must be at least 100ms", c.NotifyRetryBackoff))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
