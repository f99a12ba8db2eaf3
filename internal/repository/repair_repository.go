package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hfiuc/facility-portal/internal/model"
)

// RepairRepo provides persistence for facility repair tickets.
type RepairRepo struct {
	db *sql.DB
}

// NewRepairRepo returns a RepairRepo bound to the given database.
func NewRepairRepo(db *sql.DB) *RepairRepo { return &RepairRepo{db: db} }

// Create inserts an open ticket and returns its ID.
func (r *RepairRepo) Create(ctx context.Context, t *model.Repair) (uint64, error) {
	const q = `INSERT INTO repairs (room, email, sid, description, status) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.Room, t.Email, t.StudentID, t.Description, model.RepairOpen)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns tickets, optionally filtered by status, newest first.
func (r *RepairRepo) List(ctx context.Context, status string) ([]model.Repair, error) {
	q := `SELECT id, room, email, sid, description, status, operator, created_at, updated_at FROM repairs`
	var args []interface{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRepairs(rows)
}

// SearchByRequester returns tickets submitted under the given email or
// student ID so users can follow up on their own reports.
func (r *RepairRepo) SearchByRequester(ctx context.Context, email, sid string) ([]model.Repair, error) {
	var conds []string
	var args []interface{}
	if email != "" {
		conds = append(conds, "email = ?")
		args = append(args, email)
	}
	if sid != "" {
		conds = append(conds, "sid = ?")
		args = append(args, sid)
	}
	if len(conds) == 0 {
		return []model.Repair{}, nil
	}
	q := `SELECT id, room, email, sid, description, status, operator, created_at, updated_at
		  FROM repairs WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRepairs(rows)
}

// Process moves a ticket to a new status and records the operator.
func (r *RepairRepo) Process(ctx context.Context, id uint64, status, operator string) error {
	const q = `UPDATE repairs SET status = ?, operator = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, operator, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanRepairs(rows *sql.Rows) ([]model.Repair, error) {
	out := make([]model.Repair, 0)
	for rows.Next() {
		var t model.Repair
		var operator sql.NullString
		if err := rows.Scan(&t.ID, &t.Room, &t.Email, &t.StudentID, &t.Description, &t.Status,
			&operator, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if operator.Valid {
			op := operator.String
			t.Operator = &op
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID returns one ticket.
func (r *RepairRepo) GetByID(ctx context.Context, id uint64) (*model.Repair, error) {
	const q = `SELECT id, room, email, sid, description, status, operator, created_at, updated_at
			   FROM repairs WHERE id = ?`
	var t model.Repair
	var operator sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Room, &t.Email, &t.StudentID,
		&t.Description, &t.Status, &operator, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if operator.Valid {
		op := operator.String
		t.Operator = &op
	}
	return &t, nil
}
