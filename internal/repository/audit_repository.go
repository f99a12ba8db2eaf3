package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hfiuc/facility-portal/internal/model"
)

// AuditRepo appends to and reads the audit_log table.  The table is
// append-only: rows are never updated or deleted, one row per booking
// status transition.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns an AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// AppendTx writes one audit entry within the provided transaction so the
// entry commits or rolls back together with the status change it records.
func (r *AuditRepo) AppendTx(ctx context.Context, tx *sql.Tx, bookingID uint64, operator, action, detail string) error {
	const q = `INSERT INTO audit_log (request_id, operator, action, detail) VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, bookingID, operator, action, detail)
	return err
}

// ListByBookingIDs returns audit entries for the given bookings, oldest
// first.  Passing an empty slice returns an empty result.
func (r *AuditRepo) ListByBookingIDs(ctx context.Context, ids []uint64) ([]model.AuditEntry, error) {
	if len(ids) == 0 {
		return []model.AuditEntry{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT id, request_id, operator, action, detail, created_at
		  FROM audit_log
		  WHERE request_id IN (` + strings.Join(placeholders, ",") + `)
		  ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.BookingID, &e.Operator, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
