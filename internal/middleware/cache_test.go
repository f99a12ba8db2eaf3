package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func cacheCtx(e *echo.Echo, target string) echo.Context {
	req := httptest.NewRequest("GET", target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/announcements")
	return c
}

func TestCacheKeyVariesByQuery(t *testing.T) {
	e := echo.New()

	a := cacheKey("portal:cache", cacheCtx(e, "/api/v1/announcements?page=1"))
	b := cacheKey("portal:cache", cacheCtx(e, "/api/v1/announcements?page=2"))
	again := cacheKey("portal:cache", cacheCtx(e, "/api/v1/announcements?page=1"))

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
	assert.Contains(t, a, "portal:cache:")
}

func TestBodyRecorderDropsOversizedResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &bodyRecorder{ResponseWriter: rec, limit: 8}

	_, err := w.Write([]byte("12345"))
	assert.NoError(t, err)
	assert.False(t, w.overflow)
	assert.Equal(t, "12345", w.buf.String())

	// Crossing the limit keeps streaming to the client but stops buffering.
	_, err = w.Write([]byte("67890"))
	assert.NoError(t, err)
	assert.True(t, w.overflow)
	assert.Zero(t, w.buf.Len())
	assert.Equal(t, "1234567890", rec.Body.String())
}
