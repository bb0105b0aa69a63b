package config

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

// NewStatsCache builds the in-process cache for distribution stats. Entries
// expire on the configured TTL; newly ingested data becomes visible after
// that, which matches the eventual-visibility contract of the query path.
func NewStatsCache(cfg Config) *cache.Cache {
	ttl := time.Duration(cfg.StatsCacheTTLMin) * time.Minute
	return cache.New(ttl, 2*ttl)
}
