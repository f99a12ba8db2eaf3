package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfiuc/facility-portal/internal/model"
	"github.com/hfiuc/facility-portal/internal/repository"
)

// fakeStore implements Store in memory.  A single mutex held for the whole
// transaction stands in for the database row locks: transactions serialize,
// reads observe committed state and staged writes apply only on commit.
type fakeStore struct {
	mu       sync.Mutex
	nextID   uint64
	bookings map[uint64]model.Booking
	audits   []fakeAudit

	insertErr error // injected Insert failure
	txErr     error // injected WithTx failure, returned before fn runs
}

type fakeAudit struct {
	BookingID uint64
	Operator  string
	Action    string
	Detail    string
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: map[uint64]model.Booking{}}
}

func (s *fakeStore) seed(b model.Booking) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	s.bookings[b.ID] = b
	return b.ID
}

func (s *fakeStore) get(id uint64) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

type fakeTx struct {
	store   *fakeStore
	inserts []*model.Booking
	cancels []fakeAudit
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if s.txErr != nil {
		return s.txErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &fakeTx{store: s}
	if err := fn(tx); err != nil {
		return err // discard staged writes
	}
	for _, c := range tx.cancels {
		b := s.bookings[c.BookingID]
		b.Status = model.StatusRejected
		op := c.Operator
		b.Operator = &op
		s.bookings[c.BookingID] = b
		s.audits = append(s.audits, c)
	}
	for _, b := range tx.inserts {
		s.bookings[b.ID] = *b
	}
	return nil
}

func (t *fakeTx) LockOverlapping(ctx context.Context, room uint64, iv model.Interval, excludeEmail string) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range t.store.bookings {
		if b.Room != room || b.Status == model.StatusRejected {
			continue
		}
		if excludeEmail != "" && b.Email == excludeEmail {
			continue
		}
		if b.Interval.Overlaps(iv) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *fakeTx) Insert(ctx context.Context, b *model.Booking) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.store.nextID++
	b.ID = t.store.nextID
	t.inserts = append(t.inserts, b)
	return nil
}

func (t *fakeTx) CancelBumped(ctx context.Context, id uint64, operator string) error {
	t.cancels = append(t.cancels, fakeAudit{
		BookingID: id, Operator: operator,
		Action: model.AuditActionReject, Detail: BumpDetail,
	})
	return nil
}

// fakePriv holds the privileged email set.
type fakePriv struct {
	emails map[string]bool
	err    error
}

func (p *fakePriv) Contains(ctx context.Context, email string) (bool, error) {
	return p.emails[email], p.err
}

// fakeNotifier records post-commit notification calls.
type fakeNotifier struct {
	mu        sync.Mutex
	submitted []model.Booking
	bumped    []model.Booking
}

func (n *fakeNotifier) BookingSubmitted(ctx context.Context, b model.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitted = append(n.submitted, b)
}

func (n *fakeNotifier) BookingBumped(ctx context.Context, b model.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bumped = append(n.bumped, b)
}

func newTestService(store *fakeStore, privileged ...string) (*BookingService, *fakeNotifier) {
	set := map[string]bool{}
	for _, e := range privileged {
		set[e] = true
	}
	n := &fakeNotifier{}
	svc := NewBookingService(store, &fakePriv{emails: set}, n, Config{})
	return svc, n
}

func req(room uint64, email string, startMS, endMS int64) SubmitRequest {
	return SubmitRequest{
		Room: room, Email: email, Name: "Test User",
		Reason: "club meeting", StudentID: "20230001",
		StartMS: startMS, EndMS: endMS,
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService(newFakeStore())
	ctx := context.Background()

	cases := []struct {
		name string
		mod  func(*SubmitRequest)
	}{
		{"missing room", func(r *SubmitRequest) { r.Room = 0 }},
		{"missing name", func(r *SubmitRequest) { r.Name = "" }},
		{"missing reason", func(r *SubmitRequest) { r.Reason = "" }},
		{"missing student id", func(r *SubmitRequest) { r.StudentID = "" }},
		{"bad email", func(r *SubmitRequest) { r.Email = "not-an-address" }},
		{"inverted interval", func(r *SubmitRequest) { r.StartMS, r.EndMS = r.EndMS, r.StartMS }},
		{"zero-length interval", func(r *SubmitRequest) { r.EndMS = r.StartMS }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := req(101, "alice@example.com", 1000, 2000)
			tc.mod(&r)
			_, err := svc.Submit(ctx, r)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSubmitStandard(t *testing.T) {
	ctx := context.Background()

	t.Run("free room yields pending booking", func(t *testing.T) {
		store := newFakeStore()
		svc, n := newTestService(store)
		res, err := svc.Submit(ctx, req(101, "bob@example.com", 1000, 2000))
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, res.Booking.Status)
		assert.NotZero(t, res.Booking.ID)
		assert.Empty(t, res.Bumped)
		assert.Equal(t, model.StatusPending, store.get(res.Booking.ID).Status)
		assert.Len(t, n.submitted, 1)
	})

	t.Run("overlap with existing booking conflicts", func(t *testing.T) {
		store := newFakeStore()
		store.seed(model.Booking{
			Room: 101, Email: "alice@example.com", Status: model.StatusApproved,
			Interval: model.Interval{StartMS: 1000, EndMS: 2000},
		})
		svc, _ := newTestService(store)
		_, err := svc.Submit(ctx, req(101, "bob@example.com", 1500, 2500))
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 1, store.count())
	})

	t.Run("pending bookings also block", func(t *testing.T) {
		store := newFakeStore()
		store.seed(model.Booking{
			Room: 101, Email: "alice@example.com", Status: model.StatusPending,
			Interval: model.Interval{StartMS: 1000, EndMS: 2000},
		})
		svc, _ := newTestService(store)
		_, err := svc.Submit(ctx, req(101, "bob@example.com", 1500, 2500))
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("adjacent bookings never conflict", func(t *testing.T) {
		store := newFakeStore()
		store.seed(model.Booking{
			Room: 101, Email: "alice@example.com", Status: model.StatusApproved,
			Interval: model.Interval{StartMS: 1000, EndMS: 2000},
		})
		svc, _ := newTestService(store)
		res, err := svc.Submit(ctx, req(101, "bob@example.com", 2000, 3000))
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, res.Booking.Status)
	})

	t.Run("other rooms are independent", func(t *testing.T) {
		store := newFakeStore()
		store.seed(model.Booking{
			Room: 102, Email: "alice@example.com", Status: model.StatusApproved,
			Interval: model.Interval{StartMS: 1000, EndMS: 2000},
		})
		svc, _ := newTestService(store)
		_, err := svc.Submit(ctx, req(101, "bob@example.com", 1000, 2000))
		assert.NoError(t, err)
	})

	t.Run("rejected bookings do not block", func(t *testing.T) {
		store := newFakeStore()
		store.seed(model.Booking{
			Room: 101, Email: "alice@example.com", Status: model.StatusRejected,
			Interval: model.Interval{StartMS: 1000, EndMS: 2000},
		})
		svc, _ := newTestService(store)
		_, err := svc.Submit(ctx, req(101, "bob@example.com", 1000, 2000))
		assert.NoError(t, err)
	})
}

func TestSubmitConcurrentStandard(t *testing.T) {
	// Two overlapping standard submissions race; exactly one must win.
	store := newFakeStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := []string{"bob@example.com", "carol@example.com"}[i]
			_, errs[i] = svc.Submit(ctx, req(101, email, 1000, 2000))
		}(i)
	}
	wg.Wait()

	var conflicts, successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 1, store.count())
}

// racyStore implements Store without serializing transactions: fn runs
// outside the store mutex so, like a real database at READ COMMITTED,
// two transactions over an empty match set proceed in parallel and see
// no conflicts.  inFlight tracking lets tests assert the service layer
// serializes on its own.
type racyStore struct {
	mu       sync.Mutex
	nextID   uint64
	bookings map[uint64]model.Booking

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

type racyTx struct {
	store   *racyStore
	inserts []*model.Booking
}

func (s *racyStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	n := s.inFlight.Add(1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	defer s.inFlight.Add(-1)

	tx := &racyTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range tx.inserts {
		s.bookings[b.ID] = *b
	}
	return nil
}

func (t *racyTx) LockOverlapping(ctx context.Context, room uint64, iv model.Interval, excludeEmail string) ([]model.Booking, error) {
	t.store.mu.Lock()
	var out []model.Booking
	for _, b := range t.store.bookings {
		if b.Room != room || b.Status == model.StatusRejected {
			continue
		}
		if excludeEmail != "" && b.Email == excludeEmail {
			continue
		}
		if b.Interval.Overlaps(iv) {
			out = append(out, b)
		}
	}
	t.store.mu.Unlock()
	// Widen the gap between the conflict check and the commit.
	time.Sleep(2 * time.Millisecond)
	return out, nil
}

func (t *racyTx) Insert(ctx context.Context, b *model.Booking) error {
	t.store.mu.Lock()
	t.store.nextID++
	b.ID = t.store.nextID
	t.store.mu.Unlock()
	t.inserts = append(t.inserts, b)
	return nil
}

func (t *racyTx) CancelBumped(ctx context.Context, id uint64, operator string) error {
	return nil
}

func TestSubmitSerializesEmptyRoom(t *testing.T) {
	// Racing standard submissions over a room with no existing rows find
	// nothing to row-lock, so without service-side serialization both
	// would pass the conflict check and both would insert Pending.  The
	// per-room mutex must force them through one at a time so the loser
	// observes the winner's committed booking.
	store := &racyStore{bookings: map[uint64]model.Booking{}}
	svc := NewBookingService(store, &fakePriv{emails: map[string]bool{}}, nil, Config{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := []string{"bob@example.com", "carol@example.com"}[i]
			_, errs[i] = svc.Submit(ctx, req(101, email, 1000, 2000))
		}(i)
	}
	wg.Wait()

	var conflicts, successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, int32(1), store.maxInFlight.Load(), "transactions on one room overlapped")

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.bookings, 1)
}

// funcNotifier routes notifications to callbacks so tests can observe
// service state at publish time.
type funcNotifier struct {
	submitted func(model.Booking)
	bumped    func(model.Booking)
}

func (n *funcNotifier) BookingSubmitted(ctx context.Context, b model.Booking) {
	if n.submitted != nil {
		n.submitted(b)
	}
}

func (n *funcNotifier) BookingBumped(ctx context.Context, b model.Booking) {
	if n.bumped != nil {
		n.bumped(b)
	}
}

func TestSubmitNotifiesOutsideRoomLock(t *testing.T) {
	// Publishing a notification dials the broker; the room mutex must be
	// released by then or a slow publish stalls every other submission on
	// the room.
	store := newFakeStore()
	var svc *BookingService
	var free bool
	n := &funcNotifier{submitted: func(model.Booking) {
		svc.rooms.mu.Lock()
		m := svc.rooms.locks[101]
		svc.rooms.mu.Unlock()
		require.NotNil(t, m)
		if m.TryLock() {
			free = true
			m.Unlock()
		}
	}}
	svc = NewBookingService(store, &fakePriv{emails: map[string]bool{}}, n, Config{})

	_, err := svc.Submit(context.Background(), req(101, "bob@example.com", 1000, 2000))
	require.NoError(t, err)
	assert.True(t, free, "room lock still held during notification publish")
}

func TestSubmitPrivileged(t *testing.T) {
	ctx := context.Background()

	t.Run("cascade rejects pending and approved conflicts", func(t *testing.T) {
		store := newFakeStore()
		approvedID := store.seed(model.Booking{
			Room: 101, Email: "alice@example.com", Status: model.StatusApproved,
			Interval: model.Interval{StartMS: 1000, EndMS: 2000},
		})
		pendingID := store.seed(model.Booking{
			Room: 101, Email: "bob@example.com", Status: model.StatusPending,
			Interval: model.Interval{StartMS: 1500, EndMS: 2500},
		})
		svc, n := newTestService(store, "carol@example.com")

		res, err := svc.Submit(ctx, req(101, "carol@example.com", 1200, 2200))
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, res.Booking.Status)
		assert.Len(t, res.Bumped, 2)

		for _, id := range []uint64{approvedID, pendingID} {
			got := store.get(id)
			assert.Equal(t, model.StatusRejected, got.Status)
			require.NotNil(t, got.Operator)
			assert.Equal(t, "carol@example.com", *got.Operator)
		}
		require.Len(t, store.audits, 2)
		for _, a := range store.audits {
			assert.Equal(t, model.AuditActionReject, a.Action)
			assert.Equal(t, BumpDetail, a.Detail)
			assert.Equal(t, "carol@example.com", a.Operator)
		}
		assert.Len(t, n.bumped, 2)
		require.Len(t, n.submitted, 1)
		assert.Equal(t, model.StatusApproved, n.submitted[0].Status)
	})

	t.Run("own bookings are never bumped", func(t *testing.T) {
		store := newFakeStore()
		ownID := store.seed(model.Booking{
			Room: 101, Email: "carol@example.com", Status: model.StatusApproved,
			Interval: model.Interval{StartMS: 1000, EndMS: 2000},
		})
		svc, _ := newTestService(store, "carol@example.com")

		res, err := svc.Submit(ctx, req(101, "carol@example.com", 1500, 2500))
		require.NoError(t, err)
		assert.Empty(t, res.Bumped)
		assert.Equal(t, model.StatusApproved, store.get(ownID).Status)
		assert.Empty(t, store.audits)
	})

	t.Run("insert failure rolls back the cascade", func(t *testing.T) {
		store := newFakeStore()
		victimID := store.seed(model.Booking{
			Room: 101, Email: "alice@example.com", Status: model.StatusApproved,
			Interval: model.Interval{StartMS: 1000, EndMS: 2000},
		})
		store.insertErr = errors.New("insert exploded")
		svc, n := newTestService(store, "carol@example.com")

		_, err := svc.Submit(ctx, req(101, "carol@example.com", 1500, 2500))
		require.Error(t, err)
		assert.Equal(t, model.StatusApproved, store.get(victimID).Status)
		assert.Empty(t, store.audits)
		assert.Equal(t, 1, store.count())
		assert.Empty(t, n.bumped)
		assert.Empty(t, n.submitted)
	})
}

func TestSubmitConcurrentPrivileged(t *testing.T) {
	// Two privileged users race on the same room.  Per-room serialization
	// means both submissions succeed and the later one bumps the earlier,
	// leaving exactly one approved booking.
	store := newFakeStore()
	svc, _ := newTestService(store, "carol@example.com", "dave@example.com")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := []string{"carol@example.com", "dave@example.com"}[i]
			_, errs[i] = svc.Submit(ctx, req(101, email, 1000, 2000))
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var approved, rejected int
	store.mu.Lock()
	for _, b := range store.bookings {
		switch b.Status {
		case model.StatusApproved:
			approved++
		case model.StatusRejected:
			rejected++
		}
	}
	store.mu.Unlock()
	assert.Equal(t, 1, approved)
	assert.Equal(t, 1, rejected)
	assert.Len(t, store.audits, 1)
}

func TestSubmitScenario(t *testing.T) {
	// Room 101 holds an approved booking by alice.  Bob's standard
	// submission over an overlapping window must fail outright; carol's
	// privileged submission for the same window displaces alice.
	store := newFakeStore()
	aliceID := store.seed(model.Booking{
		Room: 101, Email: "alice@example.com", Status: model.StatusApproved,
		Interval: model.Interval{StartMS: 1700000000000, EndMS: 1700003600000},
	})
	svc, _ := newTestService(store, "carol@example.com")
	ctx := context.Background()

	_, err := svc.Submit(ctx, req(101, "bob@example.com", 1700001800000, 1700005400000))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, store.count())

	res, err := svc.Submit(ctx, req(101, "carol@example.com", 1700001800000, 1700005400000))
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, res.Booking.Status)
	assert.Equal(t, model.StatusRejected, store.get(aliceID).Status)
	require.Len(t, store.audits, 1)
	assert.Equal(t, aliceID, store.audits[0].BookingID)
	assert.Equal(t, BumpDetail, store.audits[0].Detail)
}

func TestSubmitCleaningWindow(t *testing.T) {
	ctx := context.Background()
	day := int64(1700000000000)
	day -= day % 86400000 // midnight UTC

	newSvc := func(store *fakeStore) *BookingService {
		return NewBookingService(store, &fakePriv{emails: map[string]bool{}}, nil, Config{
			RestrictedRooms:  map[uint64]bool{5: true},
			CleaningStartMin: 12 * 60,
			CleaningEndMin:   13 * 60,
		})
	}

	t.Run("restricted room blocked across the window", func(t *testing.T) {
		svc := newSvc(newFakeStore())
		// 12:30 to 13:30 local time
		_, err := svc.Submit(ctx, req(5, "bob@example.com", day+12*3600000+1800000, day+13*3600000+1800000))
		assert.ErrorIs(t, err, ErrRoomUnavailable)
	})

	t.Run("booking ending at window start is allowed", func(t *testing.T) {
		svc := newSvc(newFakeStore())
		_, err := svc.Submit(ctx, req(5, "bob@example.com", day+11*3600000, day+12*3600000))
		assert.NoError(t, err)
	})

	t.Run("booking starting at window end is allowed", func(t *testing.T) {
		svc := newSvc(newFakeStore())
		_, err := svc.Submit(ctx, req(5, "bob@example.com", day+13*3600000, day+14*3600000))
		assert.NoError(t, err)
	})

	t.Run("unrestricted room ignores the window", func(t *testing.T) {
		svc := newSvc(newFakeStore())
		_, err := svc.Submit(ctx, req(6, "bob@example.com", day+12*3600000, day+13*3600000))
		assert.NoError(t, err)
	})

	t.Run("midnight-spanning booking covering the next window is blocked", func(t *testing.T) {
		svc := newSvc(newFakeStore())
		// 13:30 to 12:30 the next day clears the first day's window but
		// covers the second day's entirely.
		_, err := svc.Submit(ctx, req(5, "bob@example.com", day+13*3600000+1800000, day+86400000+12*3600000+1800000))
		assert.ErrorIs(t, err, ErrRoomUnavailable)
	})

	t.Run("midnight-spanning booking clearing both windows is allowed", func(t *testing.T) {
		svc := newSvc(newFakeStore())
		// 13:30 to 11:00 the next day ends before the window reopens.
		_, err := svc.Submit(ctx, req(5, "bob@example.com", day+13*3600000+1800000, day+86400000+11*3600000))
		assert.NoError(t, err)
	})

	t.Run("booking spanning a full day is blocked", func(t *testing.T) {
		svc := newSvc(newFakeStore())
		// 14:00 to 14:00 two days later necessarily contains a window.
		_, err := svc.Submit(ctx, req(5, "bob@example.com", day+14*3600000, day+2*86400000+14*3600000))
		assert.ErrorIs(t, err, ErrRoomUnavailable)
	})
}

func TestSubmitErrorMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("transient store errors surface as ErrTransientStore", func(t *testing.T) {
		store := newFakeStore()
		store.txErr = repository.ErrTransient
		svc, _ := newTestService(store)
		_, err := svc.Submit(ctx, req(101, "bob@example.com", 1000, 2000))
		assert.ErrorIs(t, err, ErrTransientStore)
	})

	t.Run("privilege lookup failure aborts the submission", func(t *testing.T) {
		store := newFakeStore()
		n := &fakeNotifier{}
		svc := NewBookingService(store, &fakePriv{err: errors.New("cache down")}, n, Config{})
		_, err := svc.Submit(ctx, req(101, "bob@example.com", 1000, 2000))
		require.Error(t, err)
		assert.Equal(t, 0, store.count())
	})
}
