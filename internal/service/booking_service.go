// Package service implements the booking submission workflow: conflict
// detection, the privileged cascade and the transactional commit.  The
// database is reached through the narrow Store/Tx interfaces so the
// workflow can be exercised against a fake store in tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"time"

	"github.com/hfiuc/facility-portal/internal/model"
	"github.com/hfiuc/facility-portal/internal/repository"
)

// Tx is the set of booking operations available inside one transaction.
// Every method either takes effect atomically with the others or not at
// all; the Store implementation decides commit/rollback.
type Tx interface {
	// LockOverlapping locks and returns the non-rejected bookings for the
	// room overlapping iv under half-open semantics.  excludeEmail, when
	// non-empty, removes that requester's own bookings from the result.
	LockOverlapping(ctx context.Context, room uint64, iv model.Interval, excludeEmail string) ([]model.Booking, error)
	// Insert persists a new booking and fills in its ID.
	Insert(ctx context.Context, b *model.Booking) error
	// CancelBumped rejects a conflicting booking on behalf of a privileged
	// requester and writes the matching audit entry.
	CancelBumped(ctx context.Context, id uint64, operator string) error
}

// Store opens transactions for the submission flow.  Implementations must
// roll back fully when fn returns an error and map lock-wait timeouts and
// deadlocks to repository.ErrTransient.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// PrivilegeChecker answers whether a requester holds the booking
// privilege.  Backed by a TTL-refreshed snapshot in production.
type PrivilegeChecker interface {
	Contains(ctx context.Context, email string) (bool, error)
}

// Notifier delivers outbound booking notifications.  Calls happen only
// after a successful commit and are fire-and-forget: implementations log
// failures and never return them into the booking flow.
type Notifier interface {
	BookingSubmitted(ctx context.Context, b model.Booking)
	BookingBumped(ctx context.Context, b model.Booking)
}

// BumpDetail is the audit detail recorded when the privileged cascade
// rejects a conflicting booking.
const BumpDetail = "Conflicted with a higher priority booking."

// Config carries the tunables of the submission flow.
type Config struct {
	// RestrictedRooms cannot be booked across the cleaning window.
	RestrictedRooms map[uint64]bool
	// CleaningStart/End bound the daily cleaning window, minutes from
	// midnight in Location's wall clock.
	CleaningStartMin int
	CleaningEndMin   int
	// Location resolves booking intervals to local wall-clock time for the
	// cleaning-window check.
	Location *time.Location
}

// BookingService coordinates conflict detection, privilege resolution and
// the transactional insert for new booking requests.
type BookingService struct {
	store    Store
	priv     PrivilegeChecker
	notifier Notifier
	cfg      Config
	rooms    *roomLocks
}

// NewBookingService wires the submission workflow.  notifier may be nil,
// in which case no notifications are sent (used by tests).
func NewBookingService(store Store, priv PrivilegeChecker, notifier Notifier, cfg Config) *BookingService {
	if store == nil || priv == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &BookingService{store: store, priv: priv, notifier: notifier, cfg: cfg, rooms: newRoomLocks()}
}

// SubmitRequest is one incoming booking submission.
type SubmitRequest struct {
	Room      uint64
	Email     string
	Name      string
	Reason    string
	StudentID string
	StartMS   int64
	EndMS     int64
}

// SubmitResult reports the outcome of a successful submission.
type SubmitResult struct {
	Booking model.Booking
	// Bumped lists the bookings rejected by the privileged cascade; empty
	// on the standard path.
	Bumped []model.Booking
}

// Submit validates the request, resolves the requester's privilege and
// commits the booking.
//
// Every submission runs under the room's in-process mutex.  Row locks
// alone cannot serialize two submissions racing over an empty match set:
// FOR UPDATE at READ COMMITTED locks no rows and takes no gap locks, so
// both transactions would see zero conflicts and both insert.  The mutex
// closes that window; it is held only for the transaction itself, never
// across notification publishes.
//
// Standard path: the overlapping row set is locked FOR UPDATE and
// re-checked; any hit rolls back and returns ErrConflict, otherwise a
// Pending booking is inserted.
//
// Privileged path: the same lock is taken excluding the requester's own
// bookings, every hit is rejected with an audit entry, and the new booking
// is inserted already Approved — all in one transaction, so a failure
// after the cascade leaves no partial rejections behind.
func (s *BookingService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	iv, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkCleaningWindow(req.Room, iv); err != nil {
		return nil, err
	}

	privileged, err := s.priv.Contains(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("privilege lookup: %w", err)
	}

	b := model.Booking{
		Room:      req.Room,
		Email:     req.Email,
		Interval:  iv,
		Name:      req.Name,
		Reason:    req.Reason,
		StudentID: req.StudentID,
	}

	var bumped []model.Booking
	if privileged {
		b.Status = model.StatusApproved
		err = s.withRoomLock(req.Room, func() error {
			return s.store.WithTx(ctx, func(tx Tx) error {
				conflicts, err := tx.LockOverlapping(ctx, req.Room, iv, req.Email)
				if err != nil {
					return err
				}
				for _, c := range conflicts {
					if err := tx.CancelBumped(ctx, c.ID, req.Email); err != nil {
						return err
					}
				}
				bumped = conflicts
				return tx.Insert(ctx, &b)
			})
		})
	} else {
		b.Status = model.StatusPending
		err = s.withRoomLock(req.Room, func() error {
			return s.store.WithTx(ctx, func(tx Tx) error {
				conflicts, err := tx.LockOverlapping(ctx, req.Room, iv, "")
				if err != nil {
					return err
				}
				if len(conflicts) > 0 {
					return ErrConflict
				}
				return tx.Insert(ctx, &b)
			})
		})
	}
	if err != nil {
		if errors.Is(err, repository.ErrTransient) {
			return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
		}
		return nil, err
	}

	// Post-commit side effects; failures here must not fail the booking.
	if s.notifier != nil {
		for _, c := range bumped {
			c.Status = model.StatusRejected
			s.notifier.BookingBumped(ctx, c)
		}
		s.notifier.BookingSubmitted(ctx, b)
	}
	return &SubmitResult{Booking: b, Bumped: bumped}, nil
}

// withRoomLock runs fn while holding the room's mutex.  The lock is
// released as soon as fn returns so post-commit side effects (broker
// publishes, mail) never run under it.
func (s *BookingService) withRoomLock(room uint64, fn func() error) error {
	unlock := s.rooms.acquire(room)
	defer unlock()
	return fn()
}

func (s *BookingService) validate(req SubmitRequest) (model.Interval, error) {
	if req.Room == 0 {
		return model.Interval{}, fmt.Errorf("%w: room is required", ErrValidation)
	}
	if req.Name == "" || req.Reason == "" || req.StudentID == "" {
		return model.Interval{}, fmt.Errorf("%w: name, reason and student id are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return model.Interval{}, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	iv, err := model.NewInterval(req.StartMS, req.EndMS)
	if err != nil {
		return model.Interval{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return iv, nil
}

// checkCleaningWindow rejects bookings on restricted rooms that intersect
// the daily cleaning window, in the booking's local wall-clock time.
//
// Same-day bookings are fine when they end at or before the window opens
// or start at or after it closes.  A booking crossing midnight covers
// [start, 24:00) of its first day and [00:00, end) of its last, so each
// boundary day is checked against the window separately; anything spanning
// a full day necessarily covers the window and is rejected outright.
func (s *BookingService) checkCleaningWindow(room uint64, iv model.Interval) error {
	if !s.cfg.RestrictedRooms[room] {
		return nil
	}
	start := iv.Start().In(s.cfg.Location)
	end := iv.End().In(s.cfg.Location)
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy == ey && sm == em && sd == ed {
		if endMin <= s.cfg.CleaningStartMin || startMin >= s.cfg.CleaningEndMin {
			return nil
		}
		return ErrRoomUnavailable
	}
	if iv.EndMS-iv.StartMS >= 24*60*60*1000 {
		return ErrRoomUnavailable
	}
	// First day runs to midnight, last day starts at midnight.
	if startMin < s.cfg.CleaningEndMin || endMin > s.cfg.CleaningStartMin {
		return ErrRoomUnavailable
	}
	return nil
}

// logSideEffectErr is used by notifier implementations that want uniform
// logging for swallowed errors.
func logSideEffectErr(op string, err error) {
	if err != nil {
		log.Printf("booking: %s notification failed: %v", op, err)
	}
}
