package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("QUOTE_WORKERS", "")
	t.Setenv("ADAPTER_TIMEOUT", "")
	t.Setenv("ADMIN_USERNAMES", "")

	cfg := Load()
	assert.Equal(t, "sqlite://collectibles.db", cfg.DatabaseURL)
	assert.Equal(t, 4, cfg.QuoteWorkers)
	assert.Equal(t, 10*time.Second, cfg.AdapterTimeout)
	assert.Equal(t, []string{"admin"}, cfg.AdminUsernames)
	assert.Equal(t, "EUR", cfg.RefCurrency)
	assert.Equal(t, "EBAY_US", cfg.Ebay.MarketplaceID)
}

func TestLoadClampsPoolAndTimeout(t *testing.T) {
	t.Setenv("QUOTE_WORKERS", "64")
	t.Setenv("ADAPTER_TIMEOUT", "2s")
	cfg := Load()
	assert.Equal(t, 8, cfg.QuoteWorkers)
	assert.Equal(t, 8*time.Second, cfg.AdapterTimeout)

	t.Setenv("QUOTE_WORKERS", "0")
	t.Setenv("ADAPTER_TIMEOUT", "30")
	cfg = Load()
	assert.Equal(t, 1, cfg.QuoteWorkers)
	assert.Equal(t, 12*time.Second, cfg.AdapterTimeout)
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("ADMIN_USERNAMES", " root , admin,, ")
	assert.Equal(t, []string{"root", "admin"}, Load().AdminUsernames)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "90")
	assert.Equal(t, 90*time.Second, Load().RefreshInterval)
	t.Setenv("REFRESH_INTERVAL", "1h30m")
	assert.Equal(t, 90*time.Minute, Load().RefreshInterval)
	t.Setenv("REFRESH_INTERVAL", "soon")
	assert.Equal(t, time.Duration(0), Load().RefreshInterval)
}

func TestRefCurrency(t *testing.T) {
	t.Setenv("REF_CURRENCY", " usd ")
	assert.Equal(t, "USD", Load().RefCurrency)
	t.Setenv("REF_CURRENCY", "doubloons")
	assert.Equal(t, "EUR", Load().RefCurrency)
}
