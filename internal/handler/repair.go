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

// RepairHandler serves facility repair tickets.  Submission and the
// requester's own-lookup are public; listing and processing are admin.
type RepairHandler struct {
	Repo *repository.RepairRepo
}

func NewRepairHandler(r *repository.RepairRepo) *RepairHandler {
	return &RepairHandler{Repo: r}
}

type repairBody struct {
	Room        uint64 `json:"room"`
	Email       string `json:"email"`
	StudentID   string `json:"sid"`
	Description string `json:"description"`
}

// Submit handles POST /api/v1/repairs.
func (h *RepairHandler) Submit(c echo.Context) error {
	var body repairBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if body.Room == 0 || body.Description == "" || body.StudentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room, sid and description are required"})
	}
	if _, err := mail.ParseAddress(body.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}
	t := model.Repair{
		Room:        body.Room,
		Email:       body.Email,
		StudentID:   body.StudentID,
		Description: body.Description,
		Status:      model.RepairOpen,
	}
	id, err := h.Repo.Create(c.Request().Context(), &t)
	if err != nil {
		log.Printf("repair: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit repair request"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "status": t.Status})
}

// Mine handles GET /api/v1/repairs?email=...&sid=... so a requester can
// follow up on their own tickets without an account.
func (h *RepairHandler) Mine(c echo.Context) error {
	email := c.QueryParam("email")
	sid := c.QueryParam("sid")
	if email == "" && sid == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email or sid is required"})
	}
	items, err := h.Repo.SearchByRequester(c.Request().Context(), email, sid)
	if err != nil {
		log.Printf("repair: requester search failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list repair requests"})
	}
	return c.JSON(http.StatusOK, echo.Map{"repairs": items})
}

// List handles GET /api/v1/admin/repairs?status=OPEN.
func (h *RepairHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	switch status {
	case "", model.RepairOpen, model.RepairInProgress, model.RepairClosed:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	items, err := h.Repo.List(c.Request().Context(), status)
	if err != nil {
		log.Printf("repair: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list repair requests"})
	}
	return c.JSON(http.StatusOK, echo.Map{"repairs": items})
}

// Process handles POST /api/v1/admin/repairs/:id/process.
func (h *RepairHandler) Process(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid repair id"})
	}
	operator, err := getEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if body.Status != model.RepairInProgress && body.Status != model.RepairClosed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be IN_PROGRESS or CLOSED"})
	}
	err = h.Repo.Process(c.Request().Context(), id, body.Status, operator)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "repair request not found"})
	}
	if err != nil {
		log.Printf("repair: process failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not process repair request"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": body.Status})
}
