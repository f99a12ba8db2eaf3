// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between failure scenarios without
// inspecting driver-specific error codes.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.  Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrAlreadyDecided is returned when a status change is attempted on a
// booking that is no longer pending.  Once approved or rejected a booking
// is immutable apart from the one-time token endpoint, which performs the
// same pending-only check.
var ErrAlreadyDecided = errors.New("booking already decided")

// ErrTokenUsed is returned when a one-time approval token is presented a
// second time.
var ErrTokenUsed = errors.New("token already used")

// ErrTransient is returned for lock-wait timeouts, deadlocks and dropped
// connections.  The enclosing transaction has been rolled back and the
// whole operation is safe to retry from scratch.
var ErrTransient = errors.New("transient store error")
