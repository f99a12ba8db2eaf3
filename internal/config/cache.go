package config

import "time"

// CacheConfig tunes the Redis response cache wrapped around the public
// read endpoints (announcements, classrooms, lost and found).  Those
// listings change rarely, so a short TTL absorbs most of the read load
// without staleness anyone would notice.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string // Redis key namespace
	MaxBodyBytes int    // responses larger than this are never cached
}

// LoadCacheConfig reads the cache tunables from the environment.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "portal:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg
}
