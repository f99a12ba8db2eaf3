package repository

import (
	"context"
	"database/sql"

	"github.com/hfiuc/facility-portal/internal/model"
)

// AnnouncementRepo provides CRUD operations for portal announcements.
type AnnouncementRepo struct {
	db *sql.DB
}

// NewAnnouncementRepo returns an AnnouncementRepo bound to the given database.
func NewAnnouncementRepo(db *sql.DB) *AnnouncementRepo { return &AnnouncementRepo{db: db} }

// List returns all announcements, newest first.
func (r *AnnouncementRepo) List(ctx context.Context) ([]model.Announcement, error) {
	const q = `SELECT id, title, content, author, created_at, updated_at
			   FROM announcements ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Announcement, 0)
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Author, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts an announcement and returns its ID.
func (r *AnnouncementRepo) Create(ctx context.Context, title, content, author string) (uint64, error) {
	const q = `INSERT INTO announcements (title, content, author) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, title, content, author)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update replaces the title and content of an announcement.
func (r *AnnouncementRepo) Update(ctx context.Context, id uint64, title, content string) error {
	const q = `UPDATE announcements SET title = ?, content = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, title, content, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes an announcement.
func (r *AnnouncementRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow converts a zero-row update/delete into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
