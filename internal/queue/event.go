// Package queue defines message payloads exchanged over the message broker.
package queue

// Kinds of notification events published by the portal.
const (
	KindSubmitted       = "booking.submitted"
	KindApproved        = "booking.approved"
	KindRejected        = "booking.rejected"
	KindBumped          = "booking.bumped"
	KindApprovalRequest = "booking.approval_request"
)

// NotifyEvent is published whenever a booking needs an outbound email.  It
// carries enough information for the mail worker to render and send the
// message without querying the primary database.
type NotifyEvent struct {
	Kind        string `json:"kind"`
	BookingID   uint64 `json:"booking_id"`
	Recipient   string `json:"recipient"`
	Room        uint64 `json:"room"`
	StartMS     int64  `json:"start_ms"`
	EndMS       int64  `json:"end_ms"`
	Requester   string `json:"requester"`
	Name        string `json:"name,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Detail      string `json:"detail,omitempty"`
	ActionToken string `json:"action_token,omitempty"` // approval_request only
	SubmittedAt string `json:"submitted_at,omitempty"`
}
