package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/clock"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testZones = []domain.Zone{
	{ID: "zone-a", Name: "Zone A - Staff", Capacity: 10},
	{ID: "zone-b", Name: "Zone B - Staff", Capacity: 10},
	{ID: "zone-v", Name: "Visitor Parking", Capacity: 10},
}

type fakeWatcher struct {
	openErr error
	events  chan streamEvent

	mu      sync.Mutex
	stopped int
}

type streamEvent struct {
	snap domain.SummarySnapshot
	err  error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan streamEvent, 8)}
}

func (w *fakeWatcher) WatchSummary(ctx context.Context) (SummaryStream, error) {
	if w.openErr != nil {
		return nil, w.openErr
	}
	return &fakeStream{ctx: ctx, w: w}, nil
}

func (w *fakeWatcher) send(snap domain.SummarySnapshot) {
	w.events <- streamEvent{snap: snap}
}

func (w *fakeWatcher) fail(err error) {
	w.events <- streamEvent{err: err}
}

func (w *fakeWatcher) stopCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

type fakeStream struct {
	ctx context.Context
	w   *fakeWatcher
}

func (s *fakeStream) Next() (domain.SummarySnapshot, error) {
	select {
	case <-s.ctx.Done():
		return domain.SummarySnapshot{}, s.ctx.Err()
	case ev := <-s.w.events:
		return ev.snap, ev.err
	}
}

func (s *fakeStream) Stop() {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.w.stopped++
}

type countingTracker struct {
	mu     sync.Mutex
	opened int
	closed int
}

func (c *countingTracker) SubscriptionOpened() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened++
}

func (c *countingTracker) SubscriptionClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

func nextState(t *testing.T, sub *Subscription) State {
	t.Helper()
	select {
	case st, ok := <-sub.States():
		if !ok {
			t.Fatalf("states channel closed")
		}
		return st
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for state")
	}
	return State{}
}

func TestSubscription_InitialStateIsLoading(t *testing.T) {
	w := newFakeWatcher()
	sub := NewSubscriber(w, 30, testZones, clock.NewSystem()).Subscribe(context.Background())
	defer sub.Close()

	st := sub.Current()
	if !st.Loading || st.Err != "" {
		t.Fatalf("expected loading without error, got %+v", st)
	}
}

func TestSubscription_MissingDocumentYieldsDefaults(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	w := newFakeWatcher()
	sub := NewSubscriber(w, 30, testZones, clock.NewFixed(now)).Subscribe(context.Background())
	defer sub.Close()

	w.send(domain.SummarySnapshot{Exists: false})
	st := nextState(t, sub)

	if st.Loading || st.Err != "" {
		t.Fatalf("expected settled state, got %+v", st)
	}
	if st.TotalCapacity != 30 || st.CurrentOccupied != 0 || st.AvailableSlots != 30 {
		t.Fatalf("expected defaults, got %+v", st)
	}
	if !st.LastUpdated.Equal(now) {
		t.Fatalf("expected lastUpdated %v, got %v", now, st.LastUpdated)
	}
	if len(st.Zones) != 3 || st.Zones[0].Occupied != 0 {
		t.Fatalf("expected three empty zones, got %+v", st.Zones)
	}
}

func TestSubscription_DerivesStateFromDocument(t *testing.T) {
	updated := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	w := newFakeWatcher()
	sub := NewSubscriber(w, 30, testZones, clock.NewSystem()).Subscribe(context.Background())
	defer sub.Close()

	w.send(domain.SummarySnapshot{Exists: true, Summary: domain.OccupancySummary{Occupied: 12, LastUpdated: updated}})
	st := nextState(t, sub)
	if st.TotalCapacity != 30 || st.CurrentOccupied != 12 || st.AvailableSlots != 18 {
		t.Fatalf("unexpected state %+v", st)
	}
	if !st.LastUpdated.Equal(updated) {
		t.Fatalf("expected lastUpdated %v, got %v", updated, st.LastUpdated)
	}
	if st.Zones[0].Occupied != 10 || st.Zones[1].Occupied != 2 || st.Zones[2].Occupied != 0 {
		t.Fatalf("unexpected zone partition %+v", st.Zones)
	}

	w.send(domain.SummarySnapshot{Exists: true, Summary: domain.OccupancySummary{Occupied: 40, TotalCapacity: 100}})
	st = nextState(t, sub)
	if st.TotalCapacity != 100 || st.AvailableSlots != 60 {
		t.Fatalf("expected document capacity to win, got %+v", st)
	}

	w.send(domain.SummarySnapshot{Exists: true, Summary: domain.OccupancySummary{Occupied: 35}})
	st = nextState(t, sub)
	if st.AvailableSlots != 0 {
		t.Fatalf("expected availability clamped at 0, got %d", st.AvailableSlots)
	}
	if got := sub.Current(); got.CurrentOccupied != 35 {
		t.Fatalf("expected current to track last state, got %+v", got)
	}
}

func TestSubscription_StreamErrorStopsLoading(t *testing.T) {
	w := newFakeWatcher()
	sub := NewSubscriber(w, 30, testZones, clock.NewSystem()).Subscribe(context.Background())
	defer sub.Close()

	w.fail(errors.New("permission denied"))
	st := nextState(t, sub)
	if st.Loading {
		t.Fatalf("expected loading=false on error")
	}
	if st.Err != "permission denied" {
		t.Fatalf("expected error message, got %q", st.Err)
	}

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected subscription to end after error")
	}
	if _, ok := <-sub.States(); ok {
		t.Fatalf("expected states channel to be closed")
	}
	if w.stopCount() != 1 {
		t.Fatalf("expected stream to be stopped once, got %d", w.stopCount())
	}
}

func TestSubscription_OpenErrorReportsStoreUnavailable(t *testing.T) {
	w := newFakeWatcher()
	w.openErr = domain.ErrStoreUnavailable
	sub := NewSubscriber(w, 30, testZones, clock.NewSystem()).Subscribe(context.Background())
	defer sub.Close()

	st := nextState(t, sub)
	if st.Loading || st.Err != "store not connected" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSubscription_CloseIsDeterministic(t *testing.T) {
	w := newFakeWatcher()
	tracker := &countingTracker{}
	sub := NewSubscriber(w, 30, testZones, clock.NewSystem(), WithTracker(tracker)).Subscribe(context.Background())

	w.send(domain.SummarySnapshot{Exists: true, Summary: domain.OccupancySummary{Occupied: 1}})
	_ = nextState(t, sub)

	sub.Close()
	sub.Close()

	select {
	case <-sub.Done():
	default:
		t.Fatalf("expected done after Close")
	}
	if w.stopCount() != 1 {
		t.Fatalf("expected stream stopped once, got %d", w.stopCount())
	}
	if tracker.opened != 1 {
		t.Fatalf("expected one open, got %d", tracker.opened)
	}
	if tracker.closed != 1 {
		t.Fatalf("expected one close, got %d", tracker.closed)
	}
}

func TestSubscription_SlowReaderSeesLatest(t *testing.T) {
	w := newFakeWatcher()
	sub := NewSubscriber(w, 30, testZones, clock.NewSystem()).Subscribe(context.Background())
	defer sub.Close()

	for i := 1; i <= 5; i++ {
		w.send(domain.SummarySnapshot{Exists: true, Summary: domain.OccupancySummary{Occupied: i}})
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-sub.States():
			if st.CurrentOccupied == 5 {
				return
			}
		case <-deadline:
			t.Fatalf("never observed latest state; current %+v", sub.Current())
		}
	}
}

func TestSubscription_ParentContextCancel(t *testing.T) {
	w := newFakeWatcher()
	ctx, cancel := context.WithCancel(context.Background())
	sub := NewSubscriber(w, 30, testZones, clock.NewSystem()).Subscribe(ctx)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected subscription to stop with its parent context")
	}
	if st := sub.Current(); st.Err != "" {
		t.Fatalf("cancellation must not surface as an error, got %q", st.Err)
	}
	sub.Close()
}
