package app

import (
	"context"
	"sync"
	"time"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

type fakeStore struct {
	mu      sync.Mutex
	events  []domain.Event
	summary *domain.OccupancySummary

	appendErr    error
	incrementErr error
	decrementErr error
	resetErr     error
	readErr      error
	historyErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func unavailableStore() *fakeStore {
	err := domain.ErrStoreUnavailable
	return &fakeStore{
		appendErr:    err,
		incrementErr: err,
		decrementErr: err,
		resetErr:     err,
		readErr:      err,
		historyErr:   err,
	}
}

func (f *fakeStore) AppendEvent(_ context.Context, event domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) RecentEvents(_ context.Context, limit int) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	// Deliberately unordered and unbounded so the service has to enforce both.
	return append([]domain.Event{}, f.events...), nil
}

func (f *fakeStore) IncrementOccupied(_ context.Context, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.ensure().Occupied++
	f.summary.LastUpdated = at
	return nil
}

func (f *fakeStore) DecrementOccupied(_ context.Context, at time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decrementErr != nil {
		return 0, f.decrementErr
	}
	s := f.ensure()
	s.Occupied = domain.DecrementFloor(s.Occupied)
	s.LastUpdated = at
	return s.Occupied, nil
}

func (f *fakeStore) ResetOccupied(_ context.Context, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return f.resetErr
	}
	s := f.ensure()
	s.Occupied = 0
	s.LastUpdated = at
	return nil
}

func (f *fakeStore) GetSummary(context.Context) (domain.OccupancySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return domain.OccupancySummary{}, f.readErr
	}
	if f.summary == nil {
		return domain.OccupancySummary{}, domain.ErrSummaryNotFound
	}
	return *f.summary, nil
}

func (f *fakeStore) ensure() *domain.OccupancySummary {
	if f.summary == nil {
		f.summary = &domain.OccupancySummary{}
	}
	return f.summary
}

func (f *fakeStore) occupied() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summary == nil {
		return 0
	}
	return f.summary.Occupied
}

func (f *fakeStore) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type recordingObserver struct {
	mu       sync.Mutex
	recorded map[domain.ResultStatus]int
	resets   []domain.ResultStatus
	last     int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{recorded: make(map[domain.ResultStatus]int)}
}

func (o *recordingObserver) EventRecorded(_ domain.EventType, status domain.ResultStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recorded[status]++
}

func (o *recordingObserver) SnapshotReceived(string) {}

func (o *recordingObserver) CountReset(status domain.ResultStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resets = append(o.resets, status)
}

func (o *recordingObserver) OccupancyObserved(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.last = n
}
