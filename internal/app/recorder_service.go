package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/clock"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

// EventLog is the append-only collection of entry/exit events.
type EventLog interface {
	AppendEvent(ctx context.Context, event domain.Event) error
	RecentEvents(ctx context.Context, limit int) ([]domain.Event, error)
}

// CounterStore is the live-count document.
//
// IncrementOccupied must be commutative under concurrency. DecrementOccupied
// must be serialized against other writers of the same document and never
// go below zero; it returns the value it wrote. Implementations return
// domain.ErrStoreUnavailable when no store is connected and
// domain.ErrSummaryNotFound from GetSummary when the document is absent.
type CounterStore interface {
	IncrementOccupied(ctx context.Context, at time.Time) error
	DecrementOccupied(ctx context.Context, at time.Time) (int, error)
	ResetOccupied(ctx context.Context, at time.Time) error
	GetSummary(ctx context.Context) (domain.OccupancySummary, error)
}

type RecorderService struct {
	events   EventLog
	counter  CounterStore
	clock    clock.Clock
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

func NewRecorderService(events EventLog, counter CounterStore, clk clock.Clock, opts ...Option) *RecorderService {
	o := buildOptions(opts)
	return &RecorderService{
		events:   events,
		counter:  counter,
		clock:    clk,
		logger:   o.logger,
		observer: o.observer,
		tracer:   o.tracer,
	}
}

type RecordInput struct {
	LicensePlate string
	ZoneID       string
}

// HandleEntry appends an entry event and increments the live count.
// Store failures are reported in the result; the error return is only used
// for invalid input.
func (s *RecorderService) HandleEntry(ctx context.Context, in RecordInput) (domain.Result, error) {
	return s.record(ctx, domain.EventTypeEntry, in, func(ctx context.Context, now time.Time) error {
		return s.counter.IncrementOccupied(ctx, now)
	})
}

// HandleExit appends an exit event and decrements the live count, floored at zero.
func (s *RecorderService) HandleExit(ctx context.Context, in RecordInput) (domain.Result, error) {
	return s.record(ctx, domain.EventTypeExit, in, func(ctx context.Context, now time.Time) error {
		occupied, err := s.counter.DecrementOccupied(ctx, now)
		if err != nil {
			return err
		}
		s.observer.OccupancyObserved(occupied)
		return nil
	})
}

func (s *RecorderService) record(ctx context.Context, kind domain.EventType, in RecordInput, apply func(context.Context, time.Time) error) (domain.Result, error) {
	plate := strings.TrimSpace(in.LicensePlate)
	if plate == "" {
		return domain.Result{}, domain.ErrLicensePlateRequired
	}
	zoneID := strings.TrimSpace(in.ZoneID)
	if zoneID == "" {
		zoneID = domain.DefaultZoneID
	}

	ctx, span := s.tracer.Start(ctx, "recorder."+string(kind), trace.WithAttributes(
		attribute.String("parking.zone_id", zoneID),
	))
	defer span.End()

	now := s.clock.Now()
	event := domain.Event{
		ID:           newEventID(),
		Type:         kind,
		LicensePlate: plate,
		ZoneID:       zoneID,
		Timestamp:    now,
	}

	if err := s.events.AppendEvent(ctx, event); err != nil {
		return s.failed(span, kind, plate, now, fmt.Errorf("append event: %w", err)), nil
	}
	// The event is already in the log; a failed counter update is not reconciled.
	if err := apply(ctx, now); err != nil {
		return s.failed(span, kind, plate, now, fmt.Errorf("update live count: %w", err)), nil
	}

	s.logger.Info("vehicle event recorded",
		slog.String("type", string(kind)),
		slog.String("plate", plate),
		slog.String("zone_id", zoneID),
	)
	s.observer.EventRecorded(kind, domain.ResultSuccess)
	return domain.Result{
		Status:    domain.ResultSuccess,
		Message:   fmt.Sprintf("Vehicle %s %s recorded.", plate, kind),
		Timestamp: now,
	}, nil
}

func (s *RecorderService) failed(span trace.Span, kind domain.EventType, plate string, now time.Time, err error) domain.Result {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		s.logger.Warn("store not connected, vehicle event dropped",
			slog.String("type", string(kind)),
			slog.String("plate", plate),
		)
		s.observer.EventRecorded(kind, domain.ResultWarning)
		return domain.Result{
			Status:    domain.ResultWarning,
			Message:   fmt.Sprintf("Store not connected; vehicle %s %s was not recorded.", plate, kind),
			Timestamp: now,
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("failed to record vehicle event",
		slog.String("type", string(kind)),
		slog.String("plate", plate),
		slog.Any("error", err),
	)
	s.observer.EventRecorded(kind, domain.ResultError)
	return domain.Result{
		Status:    domain.ResultError,
		Message:   fmt.Sprintf("Failed to record %s for vehicle %s.", kind, plate),
		Timestamp: now,
	}
}

// HandleSnapshot acknowledges a camera snapshot. Nothing is stored; plate
// recognition happens outside this service.
func (s *RecorderService) HandleSnapshot(ctx context.Context, zoneID, imageBase64 string) domain.SnapshotAck {
	_, span := s.tracer.Start(ctx, "recorder.snapshot", trace.WithAttributes(
		attribute.String("parking.zone_id", zoneID),
		attribute.Int("parking.image_size", len(imageBase64)),
	))
	defer span.End()

	s.logger.Info("snapshot received",
		slog.String("zone_id", zoneID),
		slog.Int("size", len(imageBase64)),
	)
	s.observer.SnapshotReceived(zoneID)
	return domain.SnapshotAck{
		Status:    domain.ResultReceived,
		ZoneID:    zoneID,
		ImageSize: len(imageBase64),
		Timestamp: s.clock.Now(),
	}
}
