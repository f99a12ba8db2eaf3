package service

import (
	"context"
	"database/sql"

	"github.com/hfiuc/facility-portal/internal/model"
	"github.com/hfiuc/facility-portal/internal/repository"
)

// SQLStore adapts the MySQL repositories to the Store interface.  Cascade
// rejections and their audit entries share the transaction, so a failed
// privileged submission rolls back both.
type SQLStore struct {
	bookings *repository.BookingRepo
	audit    *repository.AuditRepo
}

// NewSQLStore builds the production Store over the booking and audit
// repositories.
func NewSQLStore(bookings *repository.BookingRepo, audit *repository.AuditRepo) *SQLStore {
	if bookings == nil || audit == nil {
		panic("nil repository passed to NewSQLStore")
	}
	return &SQLStore{bookings: bookings, audit: audit}
}

// WithTx opens a READ COMMITTED transaction with the configured lock wait
// timeout and passes a Tx view of it to fn.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.bookings.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(&sqlTx{tx: tx, store: s})
	})
}

type sqlTx struct {
	tx    *sql.Tx
	store *SQLStore
}

func (t *sqlTx) LockOverlapping(ctx context.Context, room uint64, iv model.Interval, excludeEmail string) ([]model.Booking, error) {
	return t.store.bookings.LockOverlappingTx(ctx, t.tx, room, iv, excludeEmail)
}

func (t *sqlTx) Insert(ctx context.Context, b *model.Booking) error {
	return t.store.bookings.InsertTx(ctx, t.tx, b)
}

func (t *sqlTx) CancelBumped(ctx context.Context, id uint64, operator string) error {
	if err := t.store.bookings.CancelBumpedTx(ctx, t.tx, id, operator); err != nil {
		return err
	}
	return t.store.audit.AppendTx(ctx, t.tx, id, operator, model.AuditActionReject, BumpDetail)
}
