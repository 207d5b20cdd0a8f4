package services

import (
	"collectibles-vault/internal/config"
	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/pricing"
	"collectibles-vault/internal/services/discogs"
	"collectibles-vault/internal/services/ebay"
	"collectibles-vault/internal/services/justtcg"
	"collectibles-vault/internal/services/pokemontcg"
	"collectibles-vault/internal/services/pricecharting"
	"collectibles-vault/internal/services/stockx"
)

// NewRegistry constructs every price source from configuration and wires the
// routing table. Sources without credentials are still registered; they
// report unconfigured without calling out. cache may be nil.
func NewRegistry(cfg *config.Config, cache pricing.Cache, log *logger.Logger) *pricing.Registry {
	log = logger.OrNop(log).With("component", "pricing")
	timeout := cfg.AdapterTimeout

	ebayTokens := pricing.ClientCredentials(cfg.Ebay.ClientID, cfg.Ebay.ClientSecret, ebay.DefaultTokenURL, []string{ebay.Scope}, timeout)
	stockxTokens := pricing.RefreshToken(cfg.StockX.ClientID, cfg.StockX.ClientSecret, cfg.StockX.RefreshToken, stockx.DefaultTokenURL, timeout)

	adapters := []pricing.Adapter{
		ebay.New(ebay.Config{MarketplaceID: cfg.Ebay.MarketplaceID, Tokens: ebayTokens, Timeout: timeout}, log),
		justtcg.New(justtcg.Config{APIKey: cfg.JustTCGAPIKey, Timeout: timeout}, log),
		pokemontcg.New(pokemontcg.Config{APIKey: cfg.PokemonTCGKey, Timeout: timeout}, log),
		pricecharting.New(pricecharting.Config{Token: cfg.PriceCharting, Timeout: timeout}, log),
		stockx.New(stockx.Config{APIKey: cfg.StockX.APIKey, Tokens: stockxTokens, Timeout: timeout}, log),
		discogs.New(discogs.Config{Token: cfg.DiscogsToken, Timeout: timeout}, log),
	}

	reg := pricing.NewRegistry()
	configured := make([]string, 0, len(adapters))
	for _, a := range adapters {
		if cache != nil {
			a = pricing.Cached(a, cache, cfg.QuoteCacheTTL, log)
		}
		reg.Register(a)
		configured = append(configured, a.Source())
	}
	log.Info("price sources registered", "sources", configured, "cache", cache != nil)
	return reg
}
