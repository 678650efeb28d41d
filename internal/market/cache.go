package market

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
	"github.com/Proton-105/coinpulse-bot/pkg/metrics"
)

const (
	DefaultTopTTL = 30 * time.Minute
	DefaultAllTTL = 6 * time.Hour
)

// ListSource is the upstream the cache refreshes from.
type ListSource interface {
	TopCoins(ctx context.Context, limit int) ([]domain.CoinRef, error)
	AllCoins(ctx context.Context) ([]domain.CoinRef, error)
}

// CacheConfig sets list freshness and the size of the top list.
type CacheConfig struct {
	TopLimit int
	TopTTL   time.Duration
	AllTTL   time.Duration
}

// Cache keeps the last successful coin lists. Reads never fail: on upstream
// errors the previous result is served, or an empty list if there is none yet.
type Cache struct {
	top *cacheEntry
	all *cacheEntry
	log *slog.Logger
}

type cacheEntry struct {
	mu        sync.Mutex
	name      string
	ttl       time.Duration
	fetch     func(ctx context.Context) ([]domain.CoinRef, error)
	data      []domain.CoinRef
	fetchedAt time.Time
	loaded    bool
	now       func() time.Time
}

func NewCache(src ListSource, cfg CacheConfig, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	if cfg.TopTTL <= 0 {
		cfg.TopTTL = DefaultTopTTL
	}
	if cfg.AllTTL <= 0 {
		cfg.AllTTL = DefaultAllTTL
	}
	if cfg.TopLimit <= 0 {
		cfg.TopLimit = 100
	}

	return &Cache{
		top: &cacheEntry{
			name: "top",
			ttl:  cfg.TopTTL,
			fetch: func(ctx context.Context) ([]domain.CoinRef, error) {
				return src.TopCoins(ctx, cfg.TopLimit)
			},
			now: time.Now,
		},
		all: &cacheEntry{
			name:  "all",
			ttl:   cfg.AllTTL,
			fetch: src.AllCoins,
			now:   time.Now,
		},
		log: log.With(slog.String("component", "market_cache")),
	}
}

// TopCoins returns the market-cap ordered list.
func (c *Cache) TopCoins(ctx context.Context) []domain.CoinRef {
	return c.top.get(ctx, c.log)
}

// AllCoins returns the full coin catalogue.
func (c *Cache) AllCoins(ctx context.Context) []domain.CoinRef {
	return c.all.get(ctx, c.log)
}

// Lookup finds a coin by id in the cached lists without triggering a fetch.
func (c *Cache) Lookup(id string) (domain.CoinRef, bool) {
	for _, entry := range []*cacheEntry{c.top, c.all} {
		entry.mu.Lock()
		data := entry.data
		entry.mu.Unlock()

		for _, coin := range data {
			if coin.ID == id {
				return coin, true
			}
		}
	}
	return domain.CoinRef{}, false
}

// The entry lock is held across the fetch so concurrent readers of an expired
// entry share one upstream call.
func (e *cacheEntry) get(ctx context.Context, log *slog.Logger) []domain.CoinRef {
	e.mu.Lock()
	defer e.mu.Unlock()

	// an empty result is never treated as fresh
	if e.loaded && len(e.data) > 0 && e.now().Sub(e.fetchedAt) < e.ttl {
		metrics.RecordCacheLookup(e.name, "hit")
		return e.data
	}

	data, err := e.fetch(ctx)
	if err != nil {
		if e.loaded {
			metrics.RecordCacheLookup(e.name, "stale")
			log.Warn("serving stale coin list",
				slog.String("cache", e.name),
				slog.Time("fetched_at", e.fetchedAt),
				slog.String("error", err.Error()),
			)
			return e.data
		}

		metrics.RecordCacheLookup(e.name, "empty")
		log.Error("coin list unavailable",
			slog.String("cache", e.name),
			slog.String("error", err.Error()),
		)
		return []domain.CoinRef{}
	}

	metrics.RecordCacheLookup(e.name, "refresh")
	e.data = data
	e.fetchedAt = e.now()
	e.loaded = true
	return data
}
