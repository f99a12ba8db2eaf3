package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList("1,2, 3")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	ids, err = parseIDList("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDList("1,abc")
	assert.Error(t, err)

	_, err = parseIDList("0")
	assert.Error(t, err)
}

func TestParamUint64(t *testing.T) {
	e := echo.New()
	newCtx := func(val string) echo.Context {
		req := httptest.NewRequest("GET", "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(val)
		return c
	}

	n, ok := paramUint64(newCtx("42"), "id")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), n)

	_, ok = paramUint64(newCtx("0"), "id")
	assert.False(t, ok)

	_, ok = paramUint64(newCtx("nope"), "id")
	assert.False(t, ok)
}

func TestRejectReasonsCoverCodes(t *testing.T) {
	for code := 1; code <= 9; code++ {
		assert.NotEmpty(t, rejectReasons[code], "code %d", code)
	}
	_, ok := rejectReasons[0]
	assert.False(t, ok)
	_, ok = rejectReasons[10]
	assert.False(t, ok)
}
