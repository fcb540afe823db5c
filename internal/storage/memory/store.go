// Package memory is an in-process store for local development and tests.
// Nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/live"
)

type Store struct {
	mu       sync.Mutex
	events   []domain.Event
	summary  *domain.OccupancySummary
	watchers map[*watcher]struct{}
}

func New() *Store {
	return &Store{watchers: make(map[*watcher]struct{})}
}

func (s *Store) AppendEvent(_ context.Context, event domain.Event) error {
	if !event.Type.Valid() {
		return domain.ErrInvalidEventType
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) RecentEvents(_ context.Context, limit int) ([]domain.Event, error) {
	s.mu.Lock()
	out := slices.Clone(s.events)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b domain.Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) IncrementOccupied(_ context.Context, at time.Time) error {
	s.update(func(sum *domain.OccupancySummary) {
		sum.Occupied++
		sum.LastUpdated = at
	})
	return nil
}

func (s *Store) DecrementOccupied(_ context.Context, at time.Time) (int, error) {
	var occupied int
	s.update(func(sum *domain.OccupancySummary) {
		sum.Occupied = domain.DecrementFloor(sum.Occupied)
		sum.LastUpdated = at
		occupied = sum.Occupied
	})
	return occupied, nil
}

func (s *Store) ResetOccupied(_ context.Context, at time.Time) error {
	s.update(func(sum *domain.OccupancySummary) {
		sum.Occupied = 0
		sum.LastUpdated = at
	})
	return nil
}

func (s *Store) GetSummary(context.Context) (domain.OccupancySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return domain.OccupancySummary{}, domain.ErrSummaryNotFound
	}
	return *s.summary, nil
}

// SetTotalCapacity writes the optional totalCapacity field on the summary.
func (s *Store) SetTotalCapacity(total int) {
	s.update(func(sum *domain.OccupancySummary) {
		sum.TotalCapacity = total
	})
}

func (s *Store) update(fn func(*domain.OccupancySummary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		s.summary = &domain.OccupancySummary{}
	}
	fn(s.summary)
	snap := domain.SummarySnapshot{Summary: *s.summary, Exists: true}
	for w := range s.watchers {
		w.offer(snap)
	}
}

// WatchSummary streams the current summary followed by every change.
func (s *Store) WatchSummary(ctx context.Context) (live.SummaryStream, error) {
	w := &watcher{
		ctx:     ctx,
		store:   s,
		pending: make(chan domain.SummarySnapshot, 1),
	}

	s.mu.Lock()
	initial := domain.SummarySnapshot{}
	if s.summary != nil {
		initial = domain.SummarySnapshot{Summary: *s.summary, Exists: true}
	}
	w.offer(initial)
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	return w, nil
}

type watcher struct {
	ctx     context.Context
	store   *Store
	pending chan domain.SummarySnapshot
	once    sync.Once
}

// offer replaces any undelivered snapshot; callers hold store.mu.
func (w *watcher) offer(snap domain.SummarySnapshot) {
	select {
	case <-w.pending:
	default:
	}
	w.pending <- snap
}

func (w *watcher) Next() (domain.SummarySnapshot, error) {
	select {
	case <-w.ctx.Done():
		return domain.SummarySnapshot{}, w.ctx.Err()
	case snap := <-w.pending:
		return snap, nil
	}
}

func (w *watcher) Stop() {
	w.once.Do(func() {
		w.store.mu.Lock()
		delete(w.store.watchers, w)
		w.store.mu.Unlock()
	})
}
