package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"collectibles-vault/internal/currency"
)

type Config struct {
	DatabaseURL string
	Port        string
	Environment string
	JWTSecret   string
	// Usernames whose tokens are treated as privileged (catalog admins).
	AdminUsernames []string
	RefCurrency    string
	CORSOrigins    []string

	QuoteWorkers   int
	AdapterTimeout time.Duration
	QuoteCacheTTL  time.Duration
	RedisURL       string

	RefreshInterval time.Duration
	RefreshBatch    int

	Ebay          EbayConfig
	JustTCGAPIKey string
	PokemonTCGKey string
	PriceCharting string
	StockX        StockXConfig
	DiscogsToken  string
}

type EbayConfig struct {
	ClientID      string
	ClientSecret  string
	MarketplaceID string
}

type StockXConfig struct {
	APIKey       string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func Load() *Config {
	return &Config{
		DatabaseURL:    getEnv("DATABASE_URL", "sqlite://collectibles.db"),
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AdminUsernames: getEnvList("ADMIN_USERNAMES", []string{"admin"}),
		RefCurrency:    refCurrency(getEnv("REF_CURRENCY", currency.Reference)),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"*"}),

		QuoteWorkers:   clampInt(getEnvInt("QUOTE_WORKERS", 4), 1, 8),
		AdapterTimeout: clampDuration(getEnvDuration("ADAPTER_TIMEOUT", 10*time.Second), 8*time.Second, 12*time.Second),
		QuoteCacheTTL:  getEnvDuration("QUOTE_CACHE_TTL", 6*time.Hour),
		RedisURL:       getEnv("REDIS_URL", ""),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 0),
		RefreshBatch:    getEnvInt("REFRESH_BATCH", 200),

		Ebay: EbayConfig{
			ClientID:      getEnv("EBAY_CLIENT_ID", ""),
			ClientSecret:  getEnv("EBAY_CLIENT_SECRET", ""),
			MarketplaceID: getEnv("EBAY_MARKETPLACE_ID", "EBAY_US"),
		},
		JustTCGAPIKey: getEnv("JUSTTCG_API_KEY", ""),
		PokemonTCGKey: getEnv("POKEMONTCG_API_KEY", ""),
		PriceCharting: getEnv("PRICECHARTING_TOKEN", ""),
		StockX: StockXConfig{
			APIKey:       getEnv("STOCKX_API_KEY", ""),
			ClientID:     getEnv("STOCKX_CLIENT_ID", ""),
			ClientSecret: getEnv("STOCKX_CLIENT_SECRET", ""),
			RefreshToken: getEnv("STOCKX_REFRESH_TOKEN", ""),
		},
		DiscogsToken: getEnv("DISCOGS_TOKEN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

// getEnvDuration accepts Go duration syntax ("90s", "6h") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// refCurrency upper-cases code and falls back to the rate table's reference
// currency for anything that is not ISO 4217.
func refCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !currency.Known(code) {
		return currency.Reference
	}
	return code
}
