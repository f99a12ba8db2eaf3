package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hfiuc/facility-portal/internal/repository"
)

// AnnouncementHandler serves the landing-page notices.  Reads are public
// and sit behind the Redis response cache; writes require an admin.
type AnnouncementHandler struct {
	Repo *repository.AnnouncementRepo
}

func NewAnnouncementHandler(r *repository.AnnouncementRepo) *AnnouncementHandler {
	return &AnnouncementHandler{Repo: r}
}

// List handles GET /api/v1/announcements.
func (h *AnnouncementHandler) List(c echo.Context) error {
	items, err := h.Repo.List(c.Request().Context())
	if err != nil {
		log.Printf("announcement: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list announcements"})
	}
	return c.JSON(http.StatusOK, echo.Map{"announcements": items})
}

type announcementBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create handles POST /api/v1/admin/announcements.
func (h *AnnouncementHandler) Create(c echo.Context) error {
	author, err := getEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var body announcementBody
	if err := c.Bind(&body); err != nil || body.Title == "" || body.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and content are required"})
	}
	id, err := h.Repo.Create(c.Request().Context(), body.Title, body.Content, author)
	if err != nil {
		log.Printf("announcement: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create announcement"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Update handles PUT /api/v1/admin/announcements/:id.
func (h *AnnouncementHandler) Update(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid announcement id"})
	}
	var body announcementBody
	if err := c.Bind(&body); err != nil || body.Title == "" || body.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and content are required"})
	}
	err := h.Repo.Update(c.Request().Context(), id, body.Title, body.Content)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "announcement not found"})
	}
	if err != nil {
		log.Printf("announcement: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update announcement"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// Delete handles DELETE /api/v1/admin/announcements/:id.
func (h *AnnouncementHandler) Delete(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid announcement id"})
	}
	err := h.Repo.Delete(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "announcement not found"})
	}
	if err != nil {
		log.Printf("announcement: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete announcement"})
	}
	return c.NoContent(http.StatusNoContent)
}
