package app

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/clock"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

type AdminService struct {
	counter  CounterStore
	clock    clock.Clock
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

func NewAdminService(counter CounterStore, clk clock.Clock, opts ...Option) *AdminService {
	o := buildOptions(opts)
	return &AdminService{
		counter:  counter,
		clock:    clk,
		logger:   o.logger,
		observer: o.observer,
		tracer:   o.tracer,
	}
}

// ResetCount overwrites the live count with zero. It does not append an
// event, so resets do not show up in history.
func (s *AdminService) ResetCount(ctx context.Context) domain.Result {
	ctx, span := s.tracer.Start(ctx, "admin.reset")
	defer span.End()

	now := s.clock.Now()
	if err := s.counter.ResetOccupied(ctx, now); err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			s.logger.Warn("store not connected, reset skipped")
			s.observer.CountReset(domain.ResultWarning)
			return domain.Result{
				Status:    domain.ResultWarning,
				Message:   "Store not connected; occupancy count was not reset.",
				Timestamp: now,
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("reset live count", slog.Any("error", err))
		s.observer.CountReset(domain.ResultError)
		return domain.Result{
			Status:    domain.ResultError,
			Message:   "Failed to reset occupancy count.",
			Timestamp: now,
		}
	}

	s.logger.Info("occupancy count reset")
	s.observer.CountReset(domain.ResultSuccess)
	s.observer.OccupancyObserved(0)
	return domain.Result{
		Status:    domain.ResultSuccess,
		Message:   "Occupancy count reset to 0.",
		Timestamp: now,
	}
}
