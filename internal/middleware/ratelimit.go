package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hfiuc/facility-portal/internal/config"
)

// tokenBucket restores one token per refill interval up to the burst
// size.  State lives in a Redis hash per bucket key so every portal
// instance draws from the same budget.  Times are epoch milliseconds.
var tokenBucket = redis.NewScript(`
	local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
	local stamp = tonumber(redis.call('HGET', KEYS[1], 'stamp'))
	local now = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local interval = tonumber(ARGV[3])

	if tokens == nil or stamp == nil then
		tokens = burst
		stamp = now
	end

	local elapsed = now - stamp
	if elapsed >= interval then
		local refill = math.floor(elapsed / interval)
		tokens = math.min(burst, tokens + refill)
		stamp = stamp + refill * interval
	end

	local allowed = 0
	local wait = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		wait = interval - (now - stamp)
		if wait < 0 then wait = 0 end
	end

	redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
	redis.call('EXPIRE', KEYS[1], ARGV[4])
	return {allowed, tokens, wait}
`)

// NewTokenBucket rate-limits requests against the shared Redis bucket.
// With limiting disabled or no Redis client it passes everything through,
// and a Redis error never blocks a request.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := tokenBucket.Run(c.Request().Context(), rdb,
				[]string{key},
				time.Now().UnixMilli(),
				cfg.Burst,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				return next(c)
			}
			allowed, remaining, waitMS := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(waitMS) / 1000.0))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// rateKey builds the bucket key for one request.  The default ip_email
// scope keys anonymous traffic by client address and authenticated staff
// by their verified email, so a busy address never drains a staff budget
// and vice versa.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	email := requesterEmail(c)
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.Scope) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "email":
		parts = append(parts, "email", email)
	case "route":
		parts = append(parts, "route", route)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "email_route":
		parts = append(parts, "email", email, "route", route)
	default: // ip_email
		parts = append(parts, "ip", ip, "email", email)
	}
	return strings.Join(parts, ":")
}
