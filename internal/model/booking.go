package model

import (
	"fmt"
	"time"
)

// Status is the approval state of a booking request.  The database keeps
// the legacy enum values ('non', 'yes', 'no') used by the original portal;
// code only ever sees the typed constants.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// legacy column values for requests.auth
const (
	authPending  = "non"
	authApproved = "yes"
	authRejected = "no"
)

// DBValue returns the column value persisted for this status.
func (s Status) DBValue() (string, error) {
	switch s {
	case StatusPending:
		return authPending, nil
	case StatusApproved:
		return authApproved, nil
	case StatusRejected:
		return authRejected, nil
	}
	return "", fmt.Errorf("unknown booking status %q", string(s))
}

// StatusFromDB maps a requests.auth column value back to a Status.
func StatusFromDB(v string) (Status, error) {
	switch v {
	case authPending:
		return StatusPending, nil
	case authApproved:
		return StatusApproved, nil
	case authRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown auth column value %q", v)
}

// Booking records one requested use of a room.
//
// Fields:
//  ID          – primary key identifier, assigned on insert.
//  Room        – numeric identifier of the physical room.
//  Email       – requester's email address.
//  Interval    – requested half-open time range.
//  Status      – Pending, Approved or Rejected.
//  Name        – requester's display name.
//  Reason      – free-text purpose of the booking.
//  StudentID   – requester's student number.
//  Operator    – email of whoever last changed the status; nil while pending.
//  SubmittedAt – creation timestamp in UTC.
type Booking struct {
	ID          uint64
	Room        uint64
	Email       string
	Interval    Interval
	Status      Status
	Name        string
	Reason      string
	StudentID   string
	Operator    *string
	SubmittedAt time.Time
}
