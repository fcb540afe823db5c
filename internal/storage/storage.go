// Package storage selects the backing store for the service.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/app"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/config"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/live"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/storage/firestore"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/storage/memory"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/storage/postgres"
)

// Store is everything the services and the live subscriber need.
type Store interface {
	app.EventLog
	app.CounterStore
	live.SummaryWatcher
}

const connectTimeout = 5 * time.Second

// Open connects the driver named by cfg.StoreDriver. When the backend cannot
// be reached the service still starts: Open logs a warning and returns a
// Disconnected store. The returned close func is never nil.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, func()) {
	store, closeFn, err := open(ctx, cfg)
	if err != nil {
		logger.Warn("store not connected; running without persistence",
			slog.String("driver", cfg.StoreDriver),
			slog.Any("error", err),
		)
		return Disconnected{}, func() {}
	}
	logger.Info("store connected", slog.String("driver", cfg.StoreDriver))
	return store, closeFn
}

func open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), func() {}, nil

	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL is empty")
		}
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(connectCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		return postgres.NewStore(pool), pool.Close, nil

	case config.DriverFirestore:
		store, err := firestore.Open(ctx, firestore.Options{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsFile: cfg.FirebaseCredentialsFile,
			CredentialsJSON: cfg.FirebaseServiceAccount,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Disconnected stands in for a store that could not be opened. Every call
// fails with domain.ErrStoreUnavailable.
type Disconnected struct{}
