package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/hfiuc/facility-portal/internal/model"
)

// BookingRepo provides persistence for room booking requests and wraps the
// transactional conflict check that keeps approved bookings overlap-free.
// The requests table stores the interval as typed start_ms/end_ms columns;
// the status enum keeps the legacy 'non'/'yes'/'no' values.
type BookingRepo struct {
	db          *sql.DB
	lockWaitSec int
}

// NewBookingRepo returns a BookingRepo bound to the given database.
// lockWaitSec bounds how long a FOR UPDATE acquisition may block before
// the database gives up and the submission is surfaced as retryable.
func NewBookingRepo(db *sql.DB, lockWaitSec int) *BookingRepo {
	if lockWaitSec <= 0 {
		lockWaitSec = 10
	}
	return &BookingRepo{db: db, lockWaitSec: lockWaitSec}
}

// DB exposes the underlying handle for handlers that open their own
// transactions spanning multiple repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// MySQL error numbers that mark a rolled-back, retryable transaction.
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// mapDBErr converts driver-level lock failures to ErrTransient so callers
// can distinguish a retryable abort from a genuine conflict or bug.
func mapDBErr(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == mysqlLockWaitTimeout || me.Number == mysqlDeadlock) {
		return ErrTransient
	}
	return err
}

// WithTx runs fn inside a READ COMMITTED transaction.  The session lock
// wait timeout is set first so a contended FOR UPDATE cannot block past
// the configured bound.  On any error the transaction is rolled back and
// lock failures are mapped to ErrTransient.
func (r *BookingRepo) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return mapDBErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "SET innodb_lock_wait_timeout = ?", r.lockWaitSec); err != nil {
		return mapDBErr(err)
	}
	if err := fn(tx); err != nil {
		return mapDBErr(err)
	}
	if err := tx.Commit(); err != nil {
		return mapDBErr(err)
	}
	committed = true
	return nil
}

// LockOverlappingTx locks and returns every non-rejected booking for the
// room whose interval overlaps the candidate under half-open semantics
// (existing.start < candidate.end AND existing.end > candidate.start).
// Rows adjacent to the candidate do not match.  When excludeEmail is
// non-empty, bookings by that requester are skipped so a privileged user
// never conflicts with their own earlier bookings.
//
// The FOR UPDATE clause is the concurrency guard for the whole submission
// flow: two concurrent submissions for overlapping intervals serialize on
// these row locks, and the loser re-observes the winner's committed insert.
func (r *BookingRepo) LockOverlappingTx(ctx context.Context, tx *sql.Tx, room uint64, iv model.Interval, excludeEmail string) ([]model.Booking, error) {
	q := `SELECT id, room, email, auth, start_ms, end_ms, name, reason, sid, operator, add_time
		  FROM requests
		  WHERE room = ? AND auth != 'no' AND start_ms < ? AND end_ms > ?`
	args := []interface{}{room, iv.EndMS, iv.StartMS}
	if excludeEmail != "" {
		q += " AND email != ?"
		args = append(args, excludeEmail)
	}
	q += " FOR UPDATE"
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertTx inserts a booking within the provided transaction and populates
// the generated ID and SubmittedAt on the passed record.
func (r *BookingRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	auth, err := b.Status.DBValue()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const q = `INSERT INTO requests (room, email, auth, start_ms, end_ms, name, reason, sid, add_time)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.Room, b.Email, auth, b.Interval.StartMS, b.Interval.EndMS,
		b.Name, b.Reason, b.StudentID, now.Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.SubmittedAt = now
	return nil
}

// RejectTx flips a still-pending booking to rejected and records the
// operator.  Bookings already decided are reported via ErrAlreadyDecided.
func (r *BookingRepo) RejectTx(ctx context.Context, tx *sql.Tx, id uint64, operator string) error {
	return r.setStatusTx(ctx, tx, id, operator, "no")
}

// CancelBumpedTx rejects a booking regardless of whether it is pending or
// already approved.  Only the privileged cascade uses it: a higher-priority
// submission may displace an approved booking, whereas the admin endpoints
// stay pending-only.  The target row must already be locked by
// LockOverlappingTx in the same transaction.
func (r *BookingRepo) CancelBumpedTx(ctx context.Context, tx *sql.Tx, id uint64, operator string) error {
	const q = `UPDATE requests SET auth = 'no', operator = ? WHERE id = ? AND auth != 'no'`
	res, err := tx.ExecContext(ctx, q, operator, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

// ApproveTx flips a still-pending booking to approved and records the
// operator.
func (r *BookingRepo) ApproveTx(ctx context.Context, tx *sql.Tx, id uint64, operator string) error {
	return r.setStatusTx(ctx, tx, id, operator, "yes")
}

func (r *BookingRepo) setStatusTx(ctx context.Context, tx *sql.Tx, id uint64, operator, auth string) error {
	const q = `UPDATE requests SET auth = ?, operator = ? WHERE id = ? AND auth = 'non'`
	res, err := tx.ExecContext(ctx, q, auth, operator, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from one already decided.
		var existing string
		err := tx.QueryRowContext(ctx, `SELECT auth FROM requests WHERE id = ?`, id).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrAlreadyDecided
	}
	return nil
}

// GetByID returns one booking outside any transaction.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, room, email, auth, start_ms, end_ms, name, reason, sid, operator, add_time
			   FROM requests WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SearchFilter carries the optional predicates accepted by Search.  At
// least one must be set.  TimeMS matches bookings whose interval touches a
// ±3 hour window around the given instant, mirroring the portal's lookup
// behaviour.
type SearchFilter struct {
	Email     string
	Room      uint64
	StudentID string
	Query     string // substring match across name, email and reason
	TimeMS    int64
}

// Empty reports whether no predicate is set.
func (f SearchFilter) Empty() bool {
	return f.Email == "" && f.Room == 0 && f.StudentID == "" && f.Query == "" && f.TimeMS == 0
}

const searchWindowMS = 3 * 60 * 60 * 1000

// Search returns bookings matching the filter, newest first.
func (r *BookingRepo) Search(ctx context.Context, f SearchFilter) ([]model.Booking, error) {
	var conds []string
	var args []interface{}
	if f.Email != "" {
		conds = append(conds, "email = ?")
		args = append(args, f.Email)
	}
	if f.Room != 0 {
		conds = append(conds, "room = ?")
		args = append(args, f.Room)
	}
	if f.StudentID != "" {
		conds = append(conds, "sid = ?")
		args = append(args, f.StudentID)
	}
	if f.Query != "" {
		conds = append(conds, "(name LIKE ? OR email LIKE ? OR reason LIKE ?)")
		pat := "%" + f.Query + "%"
		args = append(args, pat, pat, pat)
	}
	if f.TimeMS != 0 {
		conds = append(conds, "(start_ms <= ? AND end_ms >= ?)")
		args = append(args, f.TimeMS+searchWindowMS, f.TimeMS-searchWindowMS)
	}
	q := `SELECT id, room, email, auth, start_ms, end_ms, name, reason, sid, operator, add_time
		  FROM requests WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY add_time DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListUnmanaged returns bookings for rooms that have no manager entry in
// managed_rooms.  Those requests cannot be approved by a room manager's
// email link and land in the admin queue instead.
func (r *BookingRepo) ListUnmanaged(ctx context.Context) ([]model.Booking, error) {
	const q = `SELECT r.id, r.room, r.email, r.auth, r.start_ms, r.end_ms, r.name, r.reason, r.sid, r.operator, r.add_time
			   FROM requests r
			   LEFT JOIN managed_rooms m ON m.room = r.room
			   WHERE m.room IS NULL
			   ORDER BY r.add_time DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ManagerEmails returns the approver emails configured for a room, or an
// empty slice when the room is unmanaged.
func (r *BookingRepo) ManagerEmails(ctx context.Context, room uint64) ([]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT emails FROM managed_rooms WHERE room = ?`, room).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range strings.Split(raw, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(rs rowScanner) (model.Booking, error) {
	var b model.Booking
	var auth string
	var operator sql.NullString
	if err := rs.Scan(&b.ID, &b.Room, &b.Email, &auth, &b.Interval.StartMS, &b.Interval.EndMS,
		&b.Name, &b.Reason, &b.StudentID, &operator, &b.SubmittedAt); err != nil {
		return model.Booking{}, err
	}
	status, err := model.StatusFromDB(auth)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = status
	if operator.Valid {
		op := operator.String
		b.Operator = &op
	}
	return b, nil
}
