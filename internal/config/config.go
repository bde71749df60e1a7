package config

import (
	"os"
	"strings"
	"time"
)

// PricingMode selects how delivery costs are resolved against the backend.
// Tenant mode uses the flat per-tenant price endpoint; address mode sends
// the destination and gets an address-specific quote back.
type PricingMode string

const (
	PricingModeTenant  PricingMode = "tenant"
	PricingModeAddress PricingMode = "address"
)

type Config struct {
	Port string

	// Storefront backend (the API the original frontend talked to).
	BackendURL     string
	BackendTimeout time.Duration
	PricingMode    PricingMode

	// Submission journal database.
	JournalDSN string

	// Optional shared read caches. Empty RedisAddr disables caching.
	RedisAddr string
	CacheTTL  time.Duration

	// Optional event publishing. Empty RabbitURL disables it.
	RabbitURL string

	// Sessions idle longer than this are swept from the registry.
	SessionIdleTimeout time.Duration

	CORSAllowOrigins []string
}

func Load() Config {
	cfg := Config{
		Port:               getenv("PORT", "8085"),
		BackendURL:         getenv("BACKEND_URL", "http://localhost:5000"),
		BackendTimeout:     parseDuration(getenv("BACKEND_TIMEOUT", "10s"), 10*time.Second),
		PricingMode:        parsePricingMode(getenv("PRICING_MODE", "tenant")),
		JournalDSN:         os.Getenv("JOURNAL_DB_DSN"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		CacheTTL:           parseDuration(getenv("CACHE_TTL", "5m"), 5*time.Minute),
		RabbitURL:          os.Getenv("RABBITMQ_URL"),
		SessionIdleTimeout: parseDuration(getenv("SESSION_IDLE_TIMEOUT", "30m"), 30*time.Minute),
		CORSAllowOrigins:   splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func parsePricingMode(v string) PricingMode {
	if PricingMode(v) == PricingModeAddress {
		return PricingModeAddress
	}
	return PricingModeTenant
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
