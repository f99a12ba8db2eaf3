package model

import "time"

// Repair ticket states.  A ticket starts open and is closed by an admin
// once the issue has been handled.
const (
	RepairOpen       = "OPEN"
	RepairInProgress = "IN_PROGRESS"
	RepairClosed     = "CLOSED"
)

// Repair is a facility repair request submitted by a student or teacher.
type Repair struct {
	ID          uint64    // repairs.id
	Room        uint64    // repairs.room
	Email       string    // repairs.email
	StudentID   string    // repairs.sid
	Description string    // repairs.description
	Status      string    // repairs.status – OPEN, IN_PROGRESS or CLOSED
	Operator    *string   // repairs.operator – admin who processed it, nullable
	CreatedAt   time.Time // repairs.created_at
	UpdatedAt   time.Time // repairs.updated_at
}
