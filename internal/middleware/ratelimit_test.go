package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/hfiuc/facility-portal/internal/config"
)

func rateCtx(e *echo.Echo, target string) echo.Context {
	req := httptest.NewRequest("GET", target, nil)
	req.RemoteAddr = "203.0.113.9:4711"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(target)
	return c
}

func TestRateKeyUsesAuthenticatedEmail(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{Prefix: "portal:rl", Scope: "ip_email"}

	c := rateCtx(e, "/api/v1/admin/repairs")
	c.Set("email", "alice@example.com")
	assert.Equal(t, "portal:rl:ip:203.0.113.9:email:alice@example.com", rateKey(cfg, c))

	// Two staff accounts behind one address draw from separate buckets.
	c2 := rateCtx(e, "/api/v1/admin/repairs")
	c2.Set("email", "bob@example.com")
	assert.NotEqual(t, rateKey(cfg, c), rateKey(cfg, c2))
}

func TestRateKeyAnonymousFallsBackToIP(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{Prefix: "portal:rl", Scope: "ip_email"}

	c := rateCtx(e, "/api/v1/announcements")
	assert.Equal(t, "portal:rl:ip:203.0.113.9:email:anon", rateKey(cfg, c))
}

func TestRateKeyScopes(t *testing.T) {
	e := echo.New()
	c := rateCtx(e, "/api/v1/bookings")
	c.Set("email", "alice@example.com")

	cases := []struct {
		scope string
		want  string
	}{
		{"ip", "rl:ip:203.0.113.9"},
		{"email", "rl:email:alice@example.com"},
		{"route", "rl:route:GET /api/v1/bookings"},
		{"ip_route", "rl:ip:203.0.113.9:route:GET /api/v1/bookings"},
		{"email_route", "rl:email:alice@example.com:route:GET /api/v1/bookings"},
		{"", "rl:ip:203.0.113.9:email:alice@example.com"},
	}
	for _, tc := range cases {
		cfg := config.RateLimitConfig{Prefix: "rl", Scope: tc.scope}
		assert.Equal(t, tc.want, rateKey(cfg, c), "scope %q", tc.scope)
	}
}

func TestRequesterEmail(t *testing.T) {
	e := echo.New()

	c := rateCtx(e, "/api/v1/bookings")
	assert.Equal(t, "anon", requesterEmail(c))

	c.Set("email", "alice@example.com")
	assert.Equal(t, "alice@example.com", requesterEmail(c))

	// Non-string context values (a half-wired auth chain) stay anonymous.
	c2 := rateCtx(e, "/api/v1/bookings")
	c2.Set("email", 42)
	assert.Equal(t, "anon", requesterEmail(c2))
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, h(rateCtx(e, "/api/v1/bookings")))
	assert.True(t, called)
}
