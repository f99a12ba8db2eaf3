package repository

import (
	"context"
	"database/sql"
	"time"
)

// ClientError mirrors one error_log row reported by the frontend.
type ClientError struct {
	ID        uint64    `json:"id"`
	Page      string    `json:"page"`
	Message   string    `json:"message"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorLogRepo persists client-side error reports for later triage.
type ErrorLogRepo struct {
	db *sql.DB
}

// NewErrorLogRepo returns an ErrorLogRepo bound to the given database.
func NewErrorLogRepo(db *sql.DB) *ErrorLogRepo { return &ErrorLogRepo{db: db} }

// Append inserts one report.
func (r *ErrorLogRepo) Append(ctx context.Context, page, message, userAgent string) error {
	const q = `INSERT INTO error_log (page, message, user_agent) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, page, message, userAgent)
	return err
}

// List returns the most recent reports up to limit.
func (r *ErrorLogRepo) List(ctx context.Context, limit int) ([]ClientError, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, page, message, user_agent, created_at
			   FROM error_log ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ClientError, 0)
	for rows.Next() {
		var e ClientError
		if err := rows.Scan(&e.ID, &e.Page, &e.Message, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
