package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventreserve/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeEventRepo is an in-memory EventRepository. Slot operations hold the
// mutex for their whole read-modify-write, matching the atomicity the SQL
// conditional updates provide.
type fakeEventRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.Event
	nextID     int
	releaseErr error
	syncErr    error

	// confirmedCount lets SyncAttendeeCount consult the reservation ledger.
	confirmedCount func(eventID string) int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	e.Status = domain.DeriveStatus(e.ScheduledAt, e.Cancelled, e.CreatedAt)
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OwnerID == ownerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Capacity != nil && *upd.Capacity < e.CurrentAttendees {
		return nil, domain.ErrInvalidInput
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.Capacity != nil {
		e.Capacity = *upd.Capacity
	}
	if upd.ScheduledAt != nil {
		e.ScheduledAt = *upd.ScheduledAt
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) Cancel(ctx context.Context, eventID string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Cancelled = true
	e.Status = domain.StatusCancelled
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[eventID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, eventID)
	return nil
}

func (f *fakeEventRepo) ReserveSlot(ctx context.Context, eventID string, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok || e.Cancelled || !e.ScheduledAt.After(now.Add(-domain.DefaultEventDuration)) || e.CurrentAttendees >= e.Capacity {
		return 0, domain.ErrNotFound
	}
	e.CurrentAttendees++
	e.UpdatedAt = time.Now()
	return e.Capacity - e.CurrentAttendees, nil
}

func (f *fakeEventRepo) ReleaseSlot(ctx context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErr != nil {
		return 0, f.releaseErr
	}
	e, ok := f.byID[eventID]
	if !ok || e.CurrentAttendees == 0 {
		return 0, domain.ErrNotFound
	}
	e.CurrentAttendees--
	e.UpdatedAt = time.Now()
	return e.Capacity - e.CurrentAttendees, nil
}

func (f *fakeEventRepo) SyncAttendeeCount(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.syncErr != nil {
		return f.syncErr
	}
	e, ok := f.byID[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	if f.confirmedCount != nil {
		e.CurrentAttendees = f.confirmedCount(eventID)
	}
	e.UpdatedAt = time.Now()
	return nil
}

func (f *fakeEventRepo) ListOutOfSync(ctx context.Context, updatedBefore time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmedCount == nil {
		return nil, nil
	}
	var ids []string
	for id, e := range f.byID {
		if e.UpdatedAt.Before(updatedBefore) && e.CurrentAttendees != f.confirmedCount(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeEventRepo) UpdateStatus(ctx context.Context, eventID string, status domain.EventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.byID[eventID]; ok {
		e.Status = status
	}
	return nil
}

// fakeReservationRepo is an in-memory ReservationRepository with the same
// uniqueness guarantee the transactional SQL implementation provides.
type fakeReservationRepo struct {
	mu        sync.Mutex
	all       []*domain.Reservation
	nextID    int
	createErr error
	getErr    error
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{nextID: 1}
}

func (f *fakeReservationRepo) findConfirmed(eventID, userID string) *domain.Reservation {
	for _, r := range f.all {
		if r.EventID == eventID && r.UserID == userID && r.Status == domain.ReservationConfirmed {
			return r
		}
	}
	return nil
}

func (f *fakeReservationRepo) CreateConfirmed(ctx context.Context, res *domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.findConfirmed(res.EventID, res.UserID) != nil {
		return domain.ErrAlreadyReserved
	}
	res.ID = fmt.Sprintf("res-%d", f.nextID)
	f.nextID++
	res.Status = domain.ReservationConfirmed
	cp := *res
	f.all = append(f.all, &cp)
	return nil
}

func (f *fakeReservationRepo) CancelConfirmed(ctx context.Context, eventID, userID string, cancelledAt time.Time) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.findConfirmed(eventID, userID)
	if r == nil {
		return nil, domain.ErrNotFound
	}
	r.Status = domain.ReservationCancelled
	r.CancelledAt = &cancelledAt
	cp := *r
	return &cp, nil
}

func (f *fakeReservationRepo) GetConfirmed(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	r := f.findConfirmed(eventID, userID)
	if r == nil {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReservationRepo) GetCancelled(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.Reservation
	for _, r := range f.all {
		if r.EventID != eventID || r.UserID != userID || r.Status != domain.ReservationCancelled {
			continue
		}
		if latest == nil || (r.CancelledAt != nil && latest.CancelledAt != nil && r.CancelledAt.After(*latest.CancelledAt)) {
			latest = r
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeReservationRepo) ListConfirmedByEvent(ctx context.Context, eventID string) ([]*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Reservation, 0)
	for _, r := range f.all {
		if r.EventID == eventID && r.Status == domain.ReservationConfirmed {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeReservationRepo) CountConfirmedByEvent(ctx context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.all {
		if r.EventID == eventID && r.Status == domain.ReservationConfirmed {
			count++
		}
	}
	return count, nil
}

func (f *fakeReservationRepo) DeleteByUser(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	affected := map[string]struct{}{}
	kept := f.all[:0]
	for _, r := range f.all {
		if r.UserID == userID {
			if r.Status == domain.ReservationConfirmed {
				affected[r.EventID] = struct{}{}
			}
			continue
		}
		kept = append(kept, r)
	}
	f.all = kept
	var ids []string
	for id := range affected {
		ids = append(ids, id)
	}
	return ids, nil
}

// wireCount lets the fake event ledger read the fake reservation ledger, the
// way SyncAttendeeCount's subquery does in SQL.
func wireCount(events *fakeEventRepo, reservations *fakeReservationRepo) {
	events.confirmedCount = func(eventID string) int {
		n, _ := reservations.CountConfirmedByEvent(context.Background(), eventID)
		return n
	}
}

func newTestReservationService(events *fakeEventRepo, reservations *fakeReservationRepo) *reservationService {
	svc := NewReservationService(events, reservations, testLogger(), 5*time.Second).(*reservationService)
	return svc
}

func seedEvent(t *testing.T, events *fakeEventRepo, capacity int) *domain.Event {
	t.Helper()
	e := domain.NewEvent("owner-1", "Go meetup", "", capacity, time.Now().Add(2*time.Hour), time.Now())
	require.NoError(t, events.Create(context.Background(), e))
	return e
}

// requireLedgersAgree asserts the core invariant: the counter equals the
// number of confirmed reservations and never exceeds capacity.
func requireLedgersAgree(t *testing.T, events *fakeEventRepo, reservations *fakeReservationRepo, eventID string) {
	t.Helper()
	e, err := events.GetByID(context.Background(), eventID)
	require.NoError(t, err)
	count, err := reservations.CountConfirmedByEvent(context.Background(), eventID)
	require.NoError(t, err)
	require.Equal(t, count, e.CurrentAttendees)
	require.LessOrEqual(t, e.CurrentAttendees, e.Capacity)
}

func TestReservationService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns reservation and remaining spots", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 3)

		res, spots, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, domain.ReservationConfirmed, res.Status)
		assert.Equal(t, 2, spots)
		requireLedgersAgree(t, events, reservations, e.ID)
	})

	t.Run("missing event", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		svc := newTestReservationService(events, reservations)

		_, _, err := svc.Join(ctx, "ev-none", "user-a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("cancelled event", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 3)
		_, err := events.Cancel(ctx, e.ID)
		require.NoError(t, err)

		_, _, err = svc.Join(ctx, e.ID, "user-a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("completed event", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		svc := newTestReservationService(events, reservations)
		e := domain.NewEvent("owner-1", "Past meetup", "", 3, time.Now().Add(-6*time.Hour), time.Now())
		require.NoError(t, events.Create(ctx, e))

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("full event", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 1)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)
		_, _, err = svc.Join(ctx, e.ID, "user-b")
		assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
		requireLedgersAgree(t, events, reservations, e.ID)
	})

	t.Run("duplicate join compensates and reports already reserved", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 5)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)

		_, _, err = svc.Join(ctx, e.ID, "user-a")
		assert.ErrorIs(t, err, domain.ErrAlreadyReserved)

		got, err := events.GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CurrentAttendees, "failed join must not change the counter")
		requireLedgersAgree(t, events, reservations, e.ID)
	})

	t.Run("duplicate join on a full event", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 1)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)

		_, _, err = svc.Join(ctx, e.ID, "user-a")
		assert.ErrorIs(t, err, domain.ErrAlreadyReserved)
		requireLedgersAgree(t, events, reservations, e.ID)
	})

	t.Run("lookup failure after a full gate is not reported as capacity", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 1)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)

		// The reservation lookup that tells "full" from "already joined"
		// fails. That is an infrastructure error, not a terminal verdict.
		reservations.getErr = errors.New("connection reset")
		_, _, err = svc.Join(ctx, e.ID, "user-b")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrCapacityExceeded)
		assert.NotErrorIs(t, err, domain.ErrAlreadyReserved)
		assert.ErrorIs(t, err, reservations.getErr)
	})

	t.Run("reservation insert failure releases the slot", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		reservations.createErr = errors.New("insert failed")
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 3)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrAlreadyReserved)

		got, err := events.GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.CurrentAttendees)
	})
}

func TestReservationService_Join_Concurrent(t *testing.T) {
	const capacity = 5
	const callers = 25

	events := newFakeEventRepo()
	reservations := newFakeReservationRepo()
	wireCount(events, reservations)
	svc := newTestReservationService(events, reservations)
	e := seedEvent(t, events, capacity)

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := svc.Join(context.Background(), e.ID, fmt.Sprintf("user-%d", i))
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes, capacityErrs := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrCapacityExceeded):
			capacityErrs++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, capacity, successes)
	assert.Equal(t, callers-capacity, capacityErrs)
	requireLedgersAgree(t, events, reservations, e.ID)
}

func TestReservationService_Join_CapacityOneRace(t *testing.T) {
	events := newFakeEventRepo()
	reservations := newFakeReservationRepo()
	wireCount(events, reservations)
	svc := newTestReservationService(events, reservations)
	e := seedEvent(t, events, 1)

	type outcome struct {
		spots int
		err   error
	}
	outcomes := make([]outcome, 2)
	var wg sync.WaitGroup
	for i, user := range []string{"user-a", "user-b"} {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			_, spots, err := svc.Join(context.Background(), e.ID, user)
			outcomes[i] = outcome{spots: spots, err: err}
		}(i, user)
	}
	wg.Wait()

	var winners, losers int
	for _, o := range outcomes {
		if o.err == nil {
			winners++
			assert.Equal(t, 0, o.spots)
		} else {
			losers++
			assert.ErrorIs(t, o.err, domain.ErrCapacityExceeded)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)
	requireLedgersAgree(t, events, reservations, e.ID)
}

func TestReservationService_Leave(t *testing.T) {
	ctx := context.Background()

	t.Run("join leave join round trip", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 2)

		_, spots, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)
		assert.Equal(t, 1, spots)

		spots, err = svc.Leave(ctx, e.ID, "user-a")
		require.NoError(t, err)
		assert.Equal(t, 2, spots)

		_, spots, err = svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)
		assert.Equal(t, 1, spots)
		requireLedgersAgree(t, events, reservations, e.ID)
	})

	t.Run("no reservation", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 2)

		_, err := svc.Leave(ctx, e.ID, "user-a")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		got, err := events.GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.CurrentAttendees)
	})

	t.Run("leave keeps cancelled reservation for history", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 2)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)
		_, err = svc.Leave(ctx, e.ID, "user-a")
		require.NoError(t, err)

		reservations.mu.Lock()
		defer reservations.mu.Unlock()
		require.Len(t, reservations.all, 1)
		assert.Equal(t, domain.ReservationCancelled, reservations.all[0].Status)
		assert.NotNil(t, reservations.all[0].CancelledAt)
	})

	t.Run("decrement failure falls back to immediate sync", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 2)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)

		events.releaseErr = errors.New("connection reset")
		spots, err := svc.Leave(ctx, e.ID, "user-a")
		require.NoError(t, err)
		assert.Equal(t, 2, spots)
		requireLedgersAgree(t, events, reservations, e.ID)
	})

	t.Run("decrement and sync failure reports reconciliation required", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 2)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)

		events.releaseErr = errors.New("connection reset")
		events.syncErr = errors.New("connection reset")
		_, err = svc.Leave(ctx, e.ID, "user-a")
		assert.ErrorIs(t, err, domain.ErrReconciliationRequired)

		// The reservation is already cancelled; only the counter lags.
		reserved, err := svc.Status(ctx, e.ID, "user-a")
		require.NoError(t, err)
		assert.False(t, reserved)
	})

	t.Run("retry after partial failure finishes the leave", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 2)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)

		events.releaseErr = errors.New("connection reset")
		events.syncErr = errors.New("connection reset")
		_, err = svc.Leave(ctx, e.ID, "user-a")
		require.ErrorIs(t, err, domain.ErrReconciliationRequired)

		// Store recovers; the retry completes instead of failing again.
		events.releaseErr = nil
		events.syncErr = nil
		spots, err := svc.Leave(ctx, e.ID, "user-a")
		require.NoError(t, err)
		assert.Equal(t, 2, spots)
		requireLedgersAgree(t, events, reservations, e.ID)
	})

	t.Run("pending counter drift does not let a non-member leave", func(t *testing.T) {
		events := newFakeEventRepo()
		reservations := newFakeReservationRepo()
		wireCount(events, reservations)
		svc := newTestReservationService(events, reservations)
		e := seedEvent(t, events, 2)

		_, _, err := svc.Join(ctx, e.ID, "user-a")
		require.NoError(t, err)

		events.releaseErr = errors.New("connection reset")
		events.syncErr = errors.New("connection reset")
		_, err = svc.Leave(ctx, e.ID, "user-a")
		require.ErrorIs(t, err, domain.ErrReconciliationRequired)

		// user-b never reserved. The lagging counter must not be mistaken
		// for their half-finished cancellation.
		events.releaseErr = nil
		events.syncErr = nil
		_, err = svc.Leave(ctx, e.ID, "user-b")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		// user-a's retry still completes.
		spots, err := svc.Leave(ctx, e.ID, "user-a")
		require.NoError(t, err)
		assert.Equal(t, 2, spots)
		requireLedgersAgree(t, events, reservations, e.ID)
	})
}

func TestReservationService_Status(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	reservations := newFakeReservationRepo()
	wireCount(events, reservations)
	svc := newTestReservationService(events, reservations)
	e := seedEvent(t, events, 2)

	reserved, err := svc.Status(ctx, e.ID, "user-a")
	require.NoError(t, err)
	assert.False(t, reserved)

	_, _, err = svc.Join(ctx, e.ID, "user-a")
	require.NoError(t, err)

	reserved, err = svc.Status(ctx, e.ID, "user-a")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestReservationService_ListAttendees(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	reservations := newFakeReservationRepo()
	wireCount(events, reservations)
	svc := newTestReservationService(events, reservations)
	e := seedEvent(t, events, 5)

	// Distinct creation times so ordering is observable.
	base := time.Now()
	times := []time.Time{base, base.Add(time.Second), base.Add(2 * time.Second)}
	users := []string{"user-c", "user-a", "user-b"}
	for i, user := range users {
		svc.now = func() time.Time { return times[i] }
		_, _, err := svc.Join(ctx, e.ID, user)
		require.NoError(t, err)
	}

	attendees, err := svc.ListAttendees(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 3)
	for i, a := range attendees {
		assert.Equal(t, users[i], a.UserID, "attendees must come back in reservation order")
	}

	_, err = svc.ListAttendees(ctx, "ev-none")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
