// Package auth provides the privileged- and admin-email lookups backed by
// periodically refreshed read-only snapshots.  Lookups never hit the
// database on the request path; a stale snapshot is at most TTL old.
package auth

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// LoadFunc fetches the current email list from the backing store.
type LoadFunc func(ctx context.Context) ([]string, error)

// EmailSet answers membership queries against a snapshot of an email list
// that is reloaded lazily once the TTL has elapsed.  The snapshot is
// swapped atomically under a RWMutex, so concurrent request handlers only
// ever observe a complete list.
type EmailSet struct {
	load LoadFunc
	ttl  time.Duration

	mu        sync.RWMutex
	snapshot  map[string]struct{}
	refreshed time.Time
}

// NewEmailSet builds an EmailSet over the given loader.  A non-positive
// ttl defaults to five minutes.
func NewEmailSet(load LoadFunc, ttl time.Duration) *EmailSet {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &EmailSet{load: load, ttl: ttl}
}

// Contains reports whether email is in the list.  The first call, and any
// call after TTL expiry, refreshes the snapshot; if the refresh fails the
// previous snapshot keeps serving and the error is logged, matching the
// portal's degrade-don't-fail behaviour for auth lists.
func (s *EmailSet) Contains(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	fresh := s.snapshot != nil && time.Since(s.refreshed) < s.ttl
	if fresh {
		_, ok := s.snapshot[email]
		s.mu.RUnlock()
		return ok, nil
	}
	s.mu.RUnlock()

	if err := s.Refresh(ctx); err != nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.snapshot == nil {
			// never loaded successfully; membership is unknowable
			return false, err
		}
		log.Printf("auth: refresh failed, serving stale snapshot: %v", err)
		_, ok := s.snapshot[email]
		return ok, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.snapshot[email]
	return ok, nil
}

// Refresh reloads the snapshot immediately regardless of TTL.
func (s *EmailSet) Refresh(ctx context.Context) error {
	emails, err := s.load(ctx)
	if err != nil {
		return err
	}
	next := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		next[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	s.mu.Lock()
	s.snapshot = next
	s.refreshed = time.Now()
	s.mu.Unlock()
	return nil
}
