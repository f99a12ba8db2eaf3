package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hfiuc/facility-portal/internal/model"
)

// LostFoundRepo provides persistence for lost & found listings and the
// volunteer clues attached to them.
type LostFoundRepo struct {
	db *sql.DB
}

// NewLostFoundRepo returns a LostFoundRepo bound to the given database.
func NewLostFoundRepo(db *sql.DB) *LostFoundRepo { return &LostFoundRepo{db: db} }

// Create inserts a listing in the OPEN state and returns its ID.
func (r *LostFoundRepo) Create(ctx context.Context, l *model.LostFound) (uint64, error) {
	const q = `INSERT INTO lost_found (kind, item_name, description, location, email, status)
			   VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, l.Kind, l.ItemName, l.Description, l.Location, l.Email, model.LostFoundOpen)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns listings, optionally filtered by kind and status, newest
// first.
func (r *LostFoundRepo) List(ctx context.Context, kind, status string) ([]model.LostFound, error) {
	q := `SELECT id, kind, item_name, description, location, email, status, created_at, updated_at
		  FROM lost_found WHERE 1=1`
	var args []interface{}
	if kind != "" {
		q += ` AND kind = ?`
		args = append(args, kind)
	}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.LostFound, 0)
	for rows.Next() {
		var l model.LostFound
		if err := rows.Scan(&l.ID, &l.Kind, &l.ItemName, &l.Description, &l.Location,
			&l.Email, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateStatus moves a listing to a new state (CLAIMED, RETURNED).
func (r *LostFoundRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE lost_found SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AddClue attaches a volunteer tip to an existing listing.  The listing
// must exist; a foreign key violation is surfaced as ErrNotFound.
func (r *LostFoundRepo) AddClue(ctx context.Context, listingID uint64, content, contact string) (uint64, error) {
	var exists uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM lost_found WHERE id = ?`, listingID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	const q = `INSERT INTO lost_found_clues (listing_id, content, contact) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, listingID, content, contact)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListClues returns all clues for a listing, oldest first.
func (r *LostFoundRepo) ListClues(ctx context.Context, listingID uint64) ([]model.Clue, error) {
	const q = `SELECT id, listing_id, content, contact, created_at
			   FROM lost_found_clues WHERE listing_id = ? ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Clue, 0)
	for rows.Next() {
		var c model.Clue
		if err := rows.Scan(&c.ID, &c.ListingID, &c.Content, &c.Contact, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
