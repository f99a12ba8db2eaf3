package handler

import (
	"errors"
	"log"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"github.com/hfiuc/facility-portal/internal/model"
	"github.com/hfiuc/facility-portal/internal/repository"
)

// ClassroomHandler manages the recurring weekly blocks that mark
// classrooms unavailable, e.g. for timetabled lessons.  Listing is public
// so the booking form can grey out blocked slots; changes are admin-only.
type ClassroomHandler struct {
	Repo *repository.ClassroomRepo
}

func NewClassroomHandler(r *repository.ClassroomRepo) *ClassroomHandler {
	return &ClassroomHandler{Repo: r}
}

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d:[0-5]\d$`)

type classroomBody struct {
	Room      uint64 `json:"room"`
	Days      []int  `json:"days"`       // ISO weekdays, 1=Monday .. 7=Sunday
	StartTime string `json:"start_time"` // HH:MM:SS
	EndTime   string `json:"end_time"`
}

// List handles GET /api/v1/classrooms/blocked.
func (h *ClassroomHandler) List(c echo.Context) error {
	blocks, err := h.Repo.ListDisabled(c.Request().Context())
	if err != nil {
		log.Printf("classroom: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list blocks"})
	}
	return c.JSON(http.StatusOK, echo.Map{"blocks": blocks})
}

// Create handles POST /api/v1/admin/classrooms.
func (h *ClassroomHandler) Create(c echo.Context) error {
	operator, err := getEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var body classroomBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if body.Room == 0 || len(body.Days) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room and days are required"})
	}
	for _, d := range body.Days {
		if d < 1 || d > 7 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be 1..7"})
		}
	}
	if !clockRe.MatchString(body.StartTime) || !clockRe.MatchString(body.EndTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time and end_time must be HH:MM:SS"})
	}
	if body.StartTime >= body.EndTime {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must precede end_time"})
	}
	b := model.ClassroomBlock{
		Room:      body.Room,
		Days:      body.Days,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Operator:  operator,
		Active:    true,
	}
	id, err := h.Repo.Create(c.Request().Context(), &b)
	if err != nil {
		log.Printf("classroom: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create block"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// SetActive handles POST /api/v1/admin/classrooms/:id/active.
func (h *ClassroomHandler) SetActive(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid block id"})
	}
	var body struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	err := h.Repo.SetActive(c.Request().Context(), id, body.Active)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "block not found"})
	}
	if err != nil {
		log.Printf("classroom: set active failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update block"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "active": body.Active})
}

// Delete handles DELETE /api/v1/admin/classrooms/:id.
func (h *ClassroomHandler) Delete(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid block id"})
	}
	err := h.Repo.Delete(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "block not found"})
	}
	if err != nil {
		log.Printf("classroom: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete block"})
	}
	return c.NoContent(http.StatusNoContent)
}
