package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hfiuc/facility-portal/internal/repository"
)

// MiscHandler serves the odds and ends of the portal: the landing-page
// visit counter and the client-side error report drop box.
type MiscHandler struct {
	Redis  *redis.Client // may be nil, counter then degrades to zero
	Errors *repository.ErrorLogRepo
}

func NewMiscHandler(rc *redis.Client, errs *repository.ErrorLogRepo) *MiscHandler {
	return &MiscHandler{Redis: rc, Errors: errs}
}

const visitKey = "portal:visits"

// Visit handles POST /api/v1/visits: bump and return the visit counter.
// The count lives in Redis only; losing it is acceptable.
func (h *MiscHandler) Visit(c echo.Context) error {
	if h.Redis == nil {
		return c.JSON(http.StatusOK, echo.Map{"visits": 0})
	}
	n, err := h.Redis.Incr(c.Request().Context(), visitKey).Result()
	if err != nil {
		log.Printf("misc: visit counter incr failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"visits": 0})
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": n})
}

// Visits handles GET /api/v1/visits: read the counter without bumping it.
func (h *MiscHandler) Visits(c echo.Context) error {
	if h.Redis == nil {
		return c.JSON(http.StatusOK, echo.Map{"visits": 0})
	}
	raw, err := h.Redis.Get(c.Request().Context(), visitKey).Result()
	if err == redis.Nil {
		return c.JSON(http.StatusOK, echo.Map{"visits": 0})
	}
	if err != nil {
		log.Printf("misc: visit counter read failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"visits": 0})
	}
	n, _ := strconv.ParseInt(raw, 10, 64)
	return c.JSON(http.StatusOK, echo.Map{"visits": n})
}

// ReportError handles POST /api/v1/client-errors, the endpoint the
// frontend posts its JavaScript errors to.
func (h *MiscHandler) ReportError(c echo.Context) error {
	var body struct {
		Page    string `json:"page"`
		Message string `json:"message"`
	}
	if err := c.Bind(&body); err != nil || body.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message is required"})
	}
	ua := c.Request().UserAgent()
	if err := h.Errors.Append(c.Request().Context(), body.Page, body.Message, ua); err != nil {
		log.Printf("misc: error report store failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store report"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListErrors handles GET /api/v1/admin/client-errors?limit=100.
func (h *MiscHandler) ListErrors(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.Errors.List(c.Request().Context(), limit)
	if err != nil {
		log.Printf("misc: error report list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list reports"})
	}
	return c.JSON(http.StatusOK, echo.Map{"errors": items})
}
