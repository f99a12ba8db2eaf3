package repository

import (
	"context"
	"database/sql"
	"time"
)

// RefreshTokenRepo persists/validates staff refresh tokens (single
// 'token_hash' column, accounts keyed by email).
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *RefreshTokenRepo) StoreRefresh(ctx context.Context, email, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_email, token_hash, expires_at) VALUES (?,?,?)",
		email, tokenHash, exp)
	return err
}

// ValidateRefresh returns the account email if a non-revoked, non-expired
// token exists.
func (r *RefreshTokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var (
		email     string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_email, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&email, &expiresAt, &revokedAt)
	if err != nil {
		return "", err
	}
	if revokedAt.Valid {
		return "", sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return "", sql.ErrNoRows
	}
	return email, nil
}

// RevokeByHash marks a token as revoked.
func (r *RefreshTokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForEmail revokes every active token of one account.
func (r *RefreshTokenRepo) RevokeAllForEmail(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_email=? AND revoked_at IS NULL",
		email)
	return err
}
