package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in getEmail
	"strconv" // strconv converts strings to numeric types
	"strings" // strings splits comma-separated ID lists

	"github.com/labstack/echo/v4" // echo defines request context types
)

// getEmail extracts the authenticated account email stored in the context
// by the JWT middleware.
func getEmail(c echo.Context) (string, error) {
	v := c.Get("email")
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("invalid email in context")
}

// paramUint64 parses a positive numeric path parameter.
func paramUint64(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// queryUint64 parses an optional numeric query parameter, returning zero
// when absent or malformed.
func queryUint64(c echo.Context, name string) uint64 {
	n, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return n
}

// parseIDList splits a comma-separated list of numeric IDs.
func parseIDList(raw string) ([]uint64, error) {
	if raw == "" {
		return nil, nil
	}
	var out []uint64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil || n == 0 {
			return nil, errors.New("invalid id: " + part)
		}
		out = append(out, n)
	}
	return out, nil
}
