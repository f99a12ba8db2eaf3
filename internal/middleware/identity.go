package middleware

import "github.com/labstack/echo/v4"

// requesterEmail returns the authenticated requester's email as stored in
// context by JWTAuth.  Requests on the public surface carry no token and
// resolve to "anon", so their buckets collapse onto the client IP.
func requesterEmail(c echo.Context) string {
	if v, ok := c.Get("email").(string); ok && v != "" {
		return v
	}
	return "anon"
}
