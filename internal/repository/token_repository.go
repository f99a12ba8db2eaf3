package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ApprovalToken mirrors one used_tokens row.  Each token authorizes a
// single approve-or-reject action on one booking, delivered to a room
// manager by email.
type ApprovalToken struct {
	Token         string
	BookingID     uint64
	ApproverEmail string
	Used          bool
	UsedAt        *time.Time
}

// TokenRepo persists one-time approval tokens.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Create stores a freshly issued token for a booking/approver pair.
func (r *TokenRepo) Create(ctx context.Context, token string, bookingID uint64, approverEmail string) error {
	const q = `INSERT INTO used_tokens (token, request_id, approver_email, used) VALUES (?, ?, ?, FALSE)`
	_, err := r.db.ExecContext(ctx, q, token, bookingID, approverEmail)
	return err
}

// Get returns the token row, or ErrNotFound when the token was never issued.
func (r *TokenRepo) Get(ctx context.Context, token string) (*ApprovalToken, error) {
	const q = `SELECT token, request_id, approver_email, used, used_time FROM used_tokens WHERE token = ?`
	var t ApprovalToken
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, token).Scan(&t.Token, &t.BookingID, &t.ApproverEmail, &t.Used, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		ts := usedAt.Time
		t.UsedAt = &ts
	}
	return &t, nil
}

// MarkUsedTx burns the token within the provided transaction.  The
// used = FALSE guard makes the burn atomic: a second concurrent use sees
// zero rows affected and gets ErrTokenUsed even if both read the token as
// fresh beforehand.
func (r *TokenRepo) MarkUsedTx(ctx context.Context, tx *sql.Tx, token string) error {
	const q = `UPDATE used_tokens SET used = TRUE, used_time = ? WHERE token = ? AND used = FALSE`
	res, err := tx.ExecContext(ctx, q, time.Now().UTC().Format("2006-01-02 15:04:05"), token)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenUsed
	}
	return nil
}
