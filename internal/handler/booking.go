package handler

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hfiuc/facility-portal/internal/model"
	"github.com/hfiuc/facility-portal/internal/queue"
	"github.com/hfiuc/facility-portal/internal/repository"
	"github.com/hfiuc/facility-portal/internal/service"
	"github.com/hfiuc/facility-portal/internal/utils"
)

// BookingHandler exposes the booking submission, decision and lookup
// endpoints.  Submission itself is delegated to the service layer; the
// decision endpoints run their own transactions because they pair a
// status flip with an audit entry (and, for token actions, a token burn).
type BookingHandler struct {
	Svc      *service.BookingService
	Bookings *repository.BookingRepo
	Audit    *repository.AuditRepo
	Tokens   *repository.TokenRepo
}

// NewBookingHandler builds the handler from its repositories.
func NewBookingHandler(svc *service.BookingService, bookings *repository.BookingRepo, audit *repository.AuditRepo, tokens *repository.TokenRepo) *BookingHandler {
	return &BookingHandler{Svc: svc, Bookings: bookings, Audit: audit, Tokens: tokens}
}

// submitBody is the JSON body of POST /api/v1/bookings.  The legacy Time
// field ("start-end" in milliseconds) is still accepted from older
// clients; StartMS/EndMS take precedence when set.
type submitBody struct {
	Room      uint64 `json:"room"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	StudentID string `json:"sid"`
	StartMS   int64  `json:"start_ms"`
	EndMS     int64  `json:"end_ms"`
	Time      string `json:"time,omitempty"`
}

// Submit handles POST /api/v1/bookings.
func (h *BookingHandler) Submit(c echo.Context) error {
	var body submitBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if body.StartMS == 0 && body.EndMS == 0 && body.Time != "" {
		iv, err := model.ParseInterval(body.Time)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time range"})
		}
		body.StartMS, body.EndMS = iv.StartMS, iv.EndMS
	}

	ctx := c.Request().Context()
	res, err := h.Svc.Submit(ctx, service.SubmitRequest{
		Room:      body.Room,
		Email:     body.Email,
		Name:      body.Name,
		Reason:    body.Reason,
		StudentID: body.StudentID,
		StartMS:   body.StartMS,
		EndMS:     body.EndMS,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "time conflict detected, your request cannot be processed"})
		case errors.Is(err, service.ErrRoomUnavailable):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "room is unavailable during the cleaning window"})
		case errors.Is(err, service.ErrTransientStore):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporary contention, please retry"})
		default:
			log.Printf("booking: submit failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit booking"})
		}
	}

	// Pending bookings on managed rooms get one-time approval links mailed
	// to the room's managers.  Failures here never undo the booking.
	if res.Booking.Status == model.StatusPending {
		h.issueApprovalTokens(c, res.Booking)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":   res.Booking.ID,
		"status":       string(res.Booking.Status),
		"bumped_count": len(res.Bumped),
	})
}

// issueApprovalTokens creates one single-use token per room manager and
// publishes the approval-request events carrying them.
func (h *BookingHandler) issueApprovalTokens(c echo.Context, b model.Booking) {
	ctx := c.Request().Context()
	managers, err := h.Bookings.ManagerEmails(ctx, b.Room)
	if err != nil {
		log.Printf("booking: manager lookup for room %d failed: %v", b.Room, err)
		return
	}
	for _, m := range managers {
		token, err := utils.RandomHex(32)
		if err != nil {
			log.Printf("booking: token generation failed: %v", err)
			continue
		}
		if err := h.Tokens.Create(ctx, token, b.ID, m); err != nil {
			log.Printf("booking: token store failed: %v", err)
			continue
		}
		_ = queue.PublishNotify(ctx, queue.NotifyEvent{
			Kind:        queue.KindApprovalRequest,
			BookingID:   b.ID,
			Recipient:   m,
			Room:        b.Room,
			StartMS:     b.Interval.StartMS,
			EndMS:       b.Interval.EndMS,
			Requester:   b.Email,
			Name:        b.Name,
			Reason:      b.Reason,
			ActionToken: token,
			SubmittedAt: b.SubmittedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// Accept handles POST /api/v1/admin/bookings/:id/accept.
func (h *BookingHandler) Accept(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	operator, err := getEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	return h.decide(c, id, operator, true, "Approved by administrator.")
}

// Reject reason codes accepted by the reject endpoint, kept compatible
// with the portal's established numbering.
var rejectReasons = map[int]string{
	1: "The time slot has already been booked by another activity.",
	2: "Equipment or resources in the room are insufficient for the activity.",
	3: "The request does not meet the room usage rules.",
	4: "The room is closed for maintenance during the requested time.",
	5: "The planned activity raises safety concerns.",
	6: "The request information is incomplete or inaccurate.",
	7: "The planned activity does not comply with school policy.",
	8: "Too many requests have been made by the same group recently.",
	9: "The room is reserved for a special event during the requested time.",
}

// Reject handles POST /api/v1/admin/bookings/:id/reject.
func (h *BookingHandler) Reject(c echo.Context) error {
	id, ok := paramUint64(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	operator, err := getEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var body struct {
		ReasonCode int `json:"reason_code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	detail, ok := rejectReasons[body.ReasonCode]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown reason code"})
	}
	return h.decide(c, id, operator, false, detail)
}

// decide flips a pending booking's status and appends the audit entry in
// one transaction, then notifies the requester.
func (h *BookingHandler) decide(c echo.Context, id uint64, operator string, approve bool, detail string) error {
	ctx := c.Request().Context()
	var b *model.Booking
	err := h.Bookings.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if approve {
			err = h.Bookings.ApproveTx(ctx, tx, id, operator)
		} else {
			err = h.Bookings.RejectTx(ctx, tx, id, operator)
		}
		if err != nil {
			return err
		}
		action := model.AuditActionReject
		if approve {
			action = model.AuditActionAccept
		}
		return h.Audit.AppendTx(ctx, tx, id, operator, action, detail)
	})
	if err != nil {
		return h.decisionError(c, err)
	}
	if b, err = h.Bookings.GetByID(ctx, id); err != nil {
		log.Printf("booking: reload after decision failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"booking_id": id})
	}
	h.notifyDecision(c, *b, approve, detail)
	return c.JSON(http.StatusOK, echo.Map{"booking_id": b.ID, "status": string(b.Status)})
}

func (h *BookingHandler) decisionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrAlreadyDecided):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "booking has already been decided"})
	case errors.Is(err, repository.ErrTokenUsed):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "token has already been used"})
	case errors.Is(err, repository.ErrTransient):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporary contention, please retry"})
	default:
		log.Printf("booking: decision failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update booking"})
	}
}

// notifyDecision publishes the approved/rejected event for the requester.
func (h *BookingHandler) notifyDecision(c echo.Context, b model.Booking, approve bool, detail string) {
	kind := queue.KindRejected
	if approve {
		kind = queue.KindApproved
	}
	_ = queue.PublishNotify(c.Request().Context(), queue.NotifyEvent{
		Kind:      kind,
		BookingID: b.ID,
		Recipient: b.Email,
		Room:      b.Room,
		StartMS:   b.Interval.StartMS,
		EndMS:     b.Interval.EndMS,
		Requester: b.Email,
		Name:      b.Name,
		Detail:    detail,
	})
}

// TokenAction handles GET /api/v1/bookings/token-action?token=...&action=approve|reject.
// The link arrives in a room manager's mailbox; no login is required, the
// token itself is the credential.  The token burn and the status change
// share one transaction so a token can never be consumed without effect.
func (h *BookingHandler) TokenAction(c echo.Context) error {
	token := c.QueryParam("token")
	action := c.QueryParam("action")
	if token == "" || (action != "approve" && action != "reject") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and action=approve|reject are required"})
	}
	ctx := c.Request().Context()
	t, err := h.Tokens.Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown token"})
	}
	if err != nil {
		log.Printf("booking: token lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not process token"})
	}
	if t.Used {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "token has already been used"})
	}
	approve := action == "approve"
	detail := "Rejected via email link."
	if approve {
		detail = "Approved via email link."
	}
	err = h.Bookings.WithTx(ctx, func(tx *sql.Tx) error {
		if err := h.Tokens.MarkUsedTx(ctx, tx, token); err != nil {
			return err
		}
		if approve {
			if err := h.Bookings.ApproveTx(ctx, tx, t.BookingID, t.ApproverEmail); err != nil {
				return err
			}
		} else {
			if err := h.Bookings.RejectTx(ctx, tx, t.BookingID, t.ApproverEmail); err != nil {
				return err
			}
		}
		auditAction := model.AuditActionReject
		if approve {
			auditAction = model.AuditActionAccept
		}
		return h.Audit.AppendTx(ctx, tx, t.BookingID, t.ApproverEmail, auditAction, detail)
	})
	if err != nil {
		return h.decisionError(c, err)
	}
	b, err := h.Bookings.GetByID(ctx, t.BookingID)
	if err != nil {
		log.Printf("booking: reload after token action failed: %v", err)
		return c.JSON(http.StatusOK, echo.Map{"booking_id": t.BookingID})
	}
	h.notifyDecision(c, *b, approve, detail)
	return c.JSON(http.StatusOK, echo.Map{"booking_id": b.ID, "status": string(b.Status)})
}

// Inquiry handles GET /api/v1/bookings with at least one filter query
// parameter (email, room, sid, q, time_ms).
func (h *BookingHandler) Inquiry(c echo.Context) error {
	timeMS, _ := strconv.ParseInt(c.QueryParam("time_ms"), 10, 64)
	f := repository.SearchFilter{
		Email:     c.QueryParam("email"),
		Room:      queryUint64(c, "room"),
		StudentID: c.QueryParam("sid"),
		Query:     c.QueryParam("q"),
		TimeMS:    timeMS,
	}
	if f.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one filter is required"})
	}
	bookings, err := h.Bookings.Search(c.Request().Context(), f)
	if err != nil {
		log.Printf("booking: search failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// ListUnmanaged handles GET /api/v1/admin/bookings/unmanaged, the admin
// queue of requests for rooms that have no manager to approve them.
func (h *BookingHandler) ListUnmanaged(c echo.Context) error {
	bookings, err := h.Bookings.ListUnmanaged(c.Request().Context())
	if err != nil {
		log.Printf("booking: unmanaged list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// AuditLog handles GET /api/v1/admin/bookings/audit?ids=1,2,3.
func (h *BookingHandler) AuditLog(c echo.Context) error {
	ids, err := parseIDList(c.QueryParam("ids"))
	if err != nil || len(ids) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ids is required, comma-separated"})
	}
	entries, err := h.Audit.ListByBookingIDs(c.Request().Context(), ids)
	if err != nil {
		log.Printf("booking: audit list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list audit entries"})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}
