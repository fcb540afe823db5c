// Package live turns change notifications on the live-count document into a
// stream of dashboard states.
package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/clock"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

// SummaryWatcher opens a change stream over the live-count document.
type SummaryWatcher interface {
	WatchSummary(ctx context.Context) (SummaryStream, error)
}

// SummaryStream yields one snapshot per observed change, starting with the
// current document. Next blocks until a change arrives, the stream fails, or
// the context passed to WatchSummary is done.
type SummaryStream interface {
	Next() (domain.SummarySnapshot, error)
	Stop()
}

// State is what a dashboard renders. Loading and Err are never set together.
type State struct {
	TotalCapacity   int
	CurrentOccupied int
	AvailableSlots  int
	LastUpdated     time.Time
	Zones           []domain.ZoneOccupancy
	Loading         bool
	Err             string
}

// Tracker is told when subscriptions open and close.
type Tracker interface {
	SubscriptionOpened()
	SubscriptionClosed()
}

type nopTracker struct{}

func (nopTracker) SubscriptionOpened() {}
func (nopTracker) SubscriptionClosed() {}

type Subscriber struct {
	watcher SummaryWatcher
	total   int
	zones   []domain.Zone
	clock   clock.Clock
	logger  *slog.Logger
	tracker Tracker
}

type Option func(*Subscriber)

func WithLogger(l *slog.Logger) Option {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithTracker(t Tracker) Option {
	return func(s *Subscriber) {
		if t != nil {
			s.tracker = t
		}
	}
}

// NewSubscriber builds a subscriber. total is used whenever the document does
// not carry its own totalCapacity; zones are the cosmetic dashboard partition.
func NewSubscriber(watcher SummaryWatcher, total int, zones []domain.Zone, clk clock.Clock, opts ...Option) *Subscriber {
	s := &Subscriber{
		watcher: watcher,
		total:   total,
		zones:   zones,
		clock:   clk,
		logger:  slog.Default(),
		tracker: nopTracker{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe starts watching the live-count document. The caller owns the
// returned handle and must Close it.
func (s *Subscriber) Subscribe(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		cancel:  cancel,
		updates: make(chan State, 1),
		done:    make(chan struct{}),
		current: State{Loading: true},
	}
	s.tracker.SubscriptionOpened()
	go sub.run(ctx, s)
	return sub
}

// Derive maps one document snapshot to a dashboard state.
func (s *Subscriber) Derive(snap domain.SummarySnapshot) State {
	now := s.clock.Now()
	if !snap.Exists {
		return State{
			TotalCapacity:   s.total,
			CurrentOccupied: 0,
			AvailableSlots:  s.total,
			LastUpdated:     now,
			Zones:           domain.PartitionOccupancy(s.zones, 0),
		}
	}

	total := snap.Summary.TotalCapacity
	if total <= 0 {
		total = s.total
	}
	occupied := max(snap.Summary.Occupied, 0)
	lastUpdated := snap.Summary.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = now
	}
	return State{
		TotalCapacity:   total,
		CurrentOccupied: occupied,
		AvailableSlots:  max(0, total-occupied),
		LastUpdated:     lastUpdated,
		Zones:           domain.PartitionOccupancy(s.zones, occupied),
	}
}

func (s *Subscriber) failure(err error) State {
	msg := err.Error()
	if errors.Is(err, domain.ErrStoreUnavailable) {
		msg = domain.ErrStoreUnavailable.Error()
	}
	s.logger.Error("live-count subscription failed", slog.Any("error", err))
	return State{Err: msg}
}

// Subscription is a cancellable handle on a stream of states.
type Subscription struct {
	cancel  context.CancelFunc
	updates chan State
	done    chan struct{}

	mu      sync.Mutex
	current State
}

// States delivers state changes, latest first: a slow reader only sees the
// most recent state. The channel is closed when the subscription ends.
func (s *Subscription) States() <-chan State {
	return s.updates
}

// Current returns the most recent state.
func (s *Subscription) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close cancels the underlying stream and waits for it to stop. It is safe to
// call more than once.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription) run(ctx context.Context, sub *Subscriber) {
	defer close(s.done)
	defer sub.tracker.SubscriptionClosed()
	defer close(s.updates)

	stream, err := sub.watcher.WatchSummary(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.publish(sub.failure(err))
		}
		return
	}
	defer stream.Stop()

	for {
		snap, err := stream.Next()
		if err != nil {
			if ctx.Err() == nil {
				s.publish(sub.failure(err))
			}
			return
		}
		s.publish(sub.Derive(snap))
	}
}

func (s *Subscription) publish(st State) {
	s.mu.Lock()
	s.current = st
	s.mu.Unlock()

	for {
		select {
		case s.updates <- st:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
