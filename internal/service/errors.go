package service

import "errors"

// Error kinds for the booking submission flow.  Handlers dispatch on these
// with errors.Is; details travel in the wrapping message.
var (
	// ErrValidation marks malformed input rejected before any transaction
	// starts.  No audit entry is written for these.
	ErrValidation = errors.New("invalid booking request")

	// ErrConflict marks a legitimate overlapping booking on the standard
	// path.  The transaction was rolled back and nothing was persisted.
	ErrConflict = errors.New("time conflict with an existing booking")

	// ErrRoomUnavailable marks a submission falling into a restricted
	// room's cleaning window.
	ErrRoomUnavailable = errors.New("room unavailable during cleaning window")

	// ErrTransientStore marks a lock-wait timeout, deadlock or dropped
	// connection.  The whole submission is safe to retry from scratch.
	ErrTransientStore = errors.New("transient storage failure")
)
