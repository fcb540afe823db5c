package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type StatsService struct {
	events       EventLog
	counter      CounterStore
	total        int
	historyLimit int
	historyMax   int
	logger       *slog.Logger
	observer     Observer
	tracer       trace.Tracer
}

// NewStatsService builds the stats reader. total is the fixed lot capacity.
func NewStatsService(events EventLog, counter CounterStore, total int, opts ...Option) *StatsService {
	o := buildOptions(opts)
	return &StatsService{
		events:       events,
		counter:      counter,
		total:        total,
		historyLimit: o.historyLimit,
		historyMax:   o.historyMax,
		logger:       o.logger,
		observer:     o.observer,
		tracer:       o.tracer,
	}
}

// GetStats derives availability from the live count. Any read failure or a
// missing document yields the empty-lot default.
func (s *StatsService) GetStats(ctx context.Context) domain.Stats {
	ctx, span := s.tracer.Start(ctx, "stats.get")
	defer span.End()

	summary, err := s.counter.GetSummary(ctx)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSummaryNotFound):
		case errors.Is(err, domain.ErrStoreUnavailable):
			s.logger.Debug("store not connected, serving default stats")
		default:
			s.logger.Error("read live count", slog.Any("error", err))
		}
		return domain.Stats{
			Occupied:  0,
			Total:     s.total,
			Available: s.total,
		}
	}

	s.observer.OccupancyObserved(summary.Occupied)
	stats := domain.Stats{
		Occupied:  summary.Occupied,
		Total:     s.total,
		Available: s.total - summary.Occupied,
	}
	if !summary.LastUpdated.IsZero() {
		lastUpdated := summary.LastUpdated
		stats.LastUpdated = &lastUpdated
	}
	return stats
}

// GetHistory returns up to limit events, newest first. A zero limit selects
// the default page size; limits above the maximum are clamped. Store failures
// yield an empty list.
func (s *StatsService) GetHistory(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit < 0 {
		return nil, domain.ErrInvalidLimit
	}
	if limit == 0 {
		limit = s.historyLimit
	}
	limit = min(limit, s.historyMax)

	ctx, span := s.tracer.Start(ctx, "stats.history")
	defer span.End()

	events, err := s.events.RecentEvents(ctx, limit)
	if err != nil {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			s.logger.Error("read event history", slog.Any("error", err))
		}
		return []domain.Event{}, nil
	}

	slices.SortStableFunc(events, func(a, b domain.Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
