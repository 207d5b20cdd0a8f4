package pricing

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"collectibles-vault/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Cache is the subset of a redis client the quote cache needs.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedAdapter serves successful QuoteMany results from a shared cache.
// Cache failures fall through to the wrapped adapter.
type CachedAdapter struct {
	next  Adapter
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// Cached wraps next. A nil cache or non-positive ttl returns next unchanged.
func Cached(next Adapter, cache Cache, ttl time.Duration, log *logger.Logger) Adapter {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &CachedAdapter{next: next, cache: cache, ttl: ttl, log: logger.OrNop(log).With("source", next.Source())}
}

func (c *CachedAdapter) Source() string { return c.next.Source() }

func (c *CachedAdapter) Quote(ctx context.Context, q Query) (Observation, bool) {
	return PointQuote(c.QuoteMany(ctx, q))
}

func (c *CachedAdapter) QuoteMany(ctx context.Context, q Query) Result {
	if cfg, ok := c.next.(interface{ Configured() bool }); ok && !cfg.Configured() {
		return c.next.QuoteMany(ctx, q)
	}
	key := CacheKey(c.next.Source(), q)
	raw, err := c.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var obs []Observation
		if jerr := json.Unmarshal(raw, &obs); jerr == nil && len(obs) > 0 {
			return Result{Source: c.next.Source(), Status: StatusOK, Observations: obs}
		}
	case !errors.Is(err, redis.Nil):
		c.log.Warn("quote cache read failed", "reason", err.Error())
	}

	res := c.next.QuoteMany(ctx, q)
	if res.Usable() {
		if payload, jerr := json.Marshal(res.Observations); jerr == nil {
			if serr := c.cache.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
				c.log.Warn("quote cache write failed", "reason", serr.Error())
			}
		}
	}
	return res
}

// CacheKey identifies a query for one source, market params included.
func CacheKey(source string, q Query) string {
	payload, _ := json.Marshal(map[string]any{
		"name":     strings.ToLower(strings.TrimSpace(q.Name)),
		"category": strings.ToLower(strings.TrimSpace(q.Category)),
		"ids":      q.Identifiers.Map(),
		"params":   q.Params,
	})
	sum := sha1.Sum(payload)
	return "quote:" + source + ":" + hex.EncodeToString(sum[:])
}
