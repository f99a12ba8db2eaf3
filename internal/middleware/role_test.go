package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireRole(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	run := func(role interface{}) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/v1/admin/repairs", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		require.NoError(t, RequireRole("ADMIN", "STAFF")(ok)(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, run("ADMIN").Code)
	assert.Equal(t, http.StatusOK, run("STAFF").Code)
	assert.Equal(t, http.StatusForbidden, run("STUDENT").Code)
	assert.Equal(t, http.StatusForbidden, run(nil).Code)
	assert.Equal(t, http.StatusForbidden, run(7).Code)
}
