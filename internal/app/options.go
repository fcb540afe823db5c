package app

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

const tracerName = "github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/app"

// Observer receives business-level signals (metrics) from the services.
type Observer interface {
	EventRecorded(kind domain.EventType, status domain.ResultStatus)
	SnapshotReceived(zoneID string)
	CountReset(status domain.ResultStatus)
	OccupancyObserved(occupied int)
}

type nopObserver struct{}

func (nopObserver) EventRecorded(domain.EventType, domain.ResultStatus) {}
func (nopObserver) SnapshotReceived(string)                             {}
func (nopObserver) CountReset(domain.ResultStatus)                      {}
func (nopObserver) OccupancyObserved(int)                               {}

type serviceOptions struct {
	logger       *slog.Logger
	observer     Observer
	tracer       trace.Tracer
	historyLimit int
	historyMax   int
}

// Option configures the services in this package.
type Option func(*serviceOptions)

func buildOptions(opts []Option) serviceOptions {
	o := serviceOptions{
		logger:       slog.Default(),
		observer:     nopObserver{},
		tracer:       otel.Tracer(tracerName),
		historyLimit: defaultHistoryLimit,
		historyMax:   maxHistoryLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver reports recorded events, resets and occupancy readings.
func WithObserver(obs Observer) Option {
	return func(o *serviceOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithHistoryLimits overrides the default and maximum history page sizes.
func WithHistoryLimits(def, maxLimit int) Option {
	return func(o *serviceOptions) {
		if maxLimit > 0 {
			o.historyMax = maxLimit
		}
		if def > 0 && def <= o.historyMax {
			o.historyLimit = def
		}
	}
}
