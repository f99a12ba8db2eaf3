package model

import "time"

// Audit actions recorded for booking status transitions.
const (
	AuditActionAccept = "accept"
	AuditActionReject = "reject"
)

// AuditEntry is one append-only record of a booking status change.  Entries
// are never updated or deleted; every transition writes exactly one.
type AuditEntry struct {
	ID        uint64    // audit_log.id
	BookingID uint64    // audit_log.request_id
	Operator  string    // audit_log.operator – email of who performed the change
	Action    string    // audit_log.action – accept or reject
	Detail    string    // audit_log.detail – human-readable reason
	CreatedAt time.Time // audit_log.created_at
}
