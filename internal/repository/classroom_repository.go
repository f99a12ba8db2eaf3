package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/hfiuc/facility-portal/internal/model"
)

// ClassroomRepo persists recurring classroom unavailability blocks.
type ClassroomRepo struct {
	db *sql.DB
}

// NewClassroomRepo returns a ClassroomRepo bound to the given database.
func NewClassroomRepo(db *sql.DB) *ClassroomRepo { return &ClassroomRepo{db: db} }

// Create inserts an active block and returns its ID.  Days are stored as a
// comma-separated string to match the existing schema.
func (r *ClassroomRepo) Create(ctx context.Context, b *model.ClassroomBlock) (uint64, error) {
	const q = `INSERT INTO classrooms (classroom, days, start_time, end_time, operator, unavailable)
			   VALUES (?, ?, ?, ?, ?, 1)`
	res, err := r.db.ExecContext(ctx, q, b.Room, encodeDays(b.Days), b.StartTime, b.EndTime, b.Operator)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListDisabled returns all currently enforced blocks.
func (r *ClassroomRepo) ListDisabled(ctx context.Context) ([]model.ClassroomBlock, error) {
	const q = `SELECT id, classroom, days, start_time, end_time, operator, unavailable, created_at
			   FROM classrooms WHERE unavailable = 1 ORDER BY classroom ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ClassroomBlock, 0)
	for rows.Next() {
		var b model.ClassroomBlock
		var days string
		if err := rows.Scan(&b.ID, &b.Room, &days, &b.StartTime, &b.EndTime, &b.Operator, &b.Active, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Days = decodeDays(days)
		out = append(out, b)
	}
	return out, rows.Err()
}

// SetActive pauses (false) or resumes (true) a block without deleting its
// schedule.
func (r *ClassroomRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE classrooms SET unavailable = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a block entirely, re-enabling the classroom.
func (r *ClassroomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classrooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func encodeDays(days []int) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) []int {
	var out []int
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}
