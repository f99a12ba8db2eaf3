package config

import "time"

// RateLimitConfig tunes the Redis token bucket in front of the API.  The
// portal's public surface is read-mostly, so the defaults allow a burst of
// page loads and then throttle to one request per second.
type RateLimitConfig struct {
	Enabled        bool
	Burst          int           // bucket capacity
	RefillInterval time.Duration // one token restored per interval
	TTL            time.Duration // idle bucket lifetime in Redis
	Scope          string        // bucket key scope, see middleware.rateKey
	Prefix         string        // Redis key namespace
}

// LoadRateLimitConfig reads the rate-limit tunables from the environment
// and clamps them to workable values.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Burst:          envInt("RATE_LIMIT_BURST", 60),
		RefillInterval: envDur("RATE_LIMIT_REFILL_EVERY", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Scope:          envStr("RATE_LIMIT_SCOPE", "ip_email"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "portal:rl"),
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// Buckets must outlive their own refill cycle or idle clients reset
	// to a full burst early.
	if min := time.Duration(cfg.Burst) * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}
