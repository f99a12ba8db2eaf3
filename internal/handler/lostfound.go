package handler

import (
	"errors"
	"log"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"

	"github.com/hfiuc/facility-portal/internal/model"
	"github.com/hfiuc/facility-portal/internal/repository"
)

// LostFoundHandler serves the lost & found board.  Listings and clues are
// public; status changes are admin-only.
type LostFoundHandler struct {
	Repo *repository.LostFoundRepo
}

func NewLostFoundHandler(r *repository.LostFoundRepo) *LostFoundHandler {
	return &LostFoundHandler{Repo: r}
}

type lostFoundBody struct {
	Kind        string `json:"kind"` // lost | found
	ItemName    string `json:"item_name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Email       string `json:"email"`
}

// Create handles POST /api/v1/lost-found.
func (h *LostFoundHandler) Create(c echo.Context) error {
	var body lostFoundBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if body.Kind != "lost" && body.Kind != "found" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be lost or found"})
	}
	if body.ItemName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "item_name is required"})
	}
	if _, err := mail.ParseAddress(body.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}
	l := model.LostFound{
		Kind:        body.Kind,
		ItemName:    body.ItemName,
		Description: body.Description,
		Location:    body.Location,
		Email:       body.Email,
		Status:      model.LostFoundOpen,
	}
	id, err := h.Repo.Create(c.Request().Context(), &l)
	if err != nil {
		log.Printf("lostfound: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create listing"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// List handles GET /api/v1/lost-found?kind=lost&status=OPEN.
func (h *LostFoundHandler) List(c echo.Context) error {
	kind := c.QueryParam("kind")
	if kind != "" && kind != "lost" && kind != "found" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be lost or found"})
	}
	status := c.QueryParam("status")
	switch status {
	case "", model.LostFoundOpen, model.LostFoundClaimed, model.LostFoundReturned:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	items, err := h.Repo.List(c.Request().Context(), kind, status)
	if err != nil {
		log.Printf("lostfound: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list items"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AddClue handles POST /api/v1/lost-found/:id/clues.
func (h *LostFoundHandler) AddClue(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	var body struct {
		Content string `json:"content"`
		Contact string `json:"contact"`
	}
	if err := c.Bind(&body); err != nil || body.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}
	clueID, err := h.Repo.AddClue(c.Request().Context(), id, body.Content, body.Contact)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}
	if err != nil {
		log.Printf("lostfound: add clue failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add clue"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": clueID})
}

// ListClues handles GET /api/v1/lost-found/:id/clues.
func (h *LostFoundHandler) ListClues(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	clues, err := h.Repo.ListClues(c.Request().Context(), id)
	if err != nil {
		log.Printf("lostfound: list clues failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list clues"})
	}
	return c.JSON(http.StatusOK, echo.Map{"clues": clues})
}

// UpdateStatus handles POST /api/v1/admin/lost-found/:id/status.
func (h *LostFoundHandler) UpdateStatus(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if body.Status != model.LostFoundClaimed && body.Status != model.LostFoundReturned {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be CLAIMED or RETURNED"})
	}
	err := h.Repo.UpdateStatus(c.Request().Context(), id, body.Status)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	}
	if err != nil {
		log.Printf("lostfound: status update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update listing"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": body.Status})
}
