package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

// CounterRepository owns the single live_counts row keyed by
// domain.SummaryDocumentID.
type CounterRepository struct {
	pool *pgxpool.Pool
}

func NewCounterRepository(pool *pgxpool.Pool) *CounterRepository {
	return &CounterRepository{pool: pool}
}

func (r *CounterRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return inTx(ctx, r.pool, fn)
}

func (r *CounterRepository) IncrementOccupied(ctx context.Context, at time.Time) error {
	const stmt = `
INSERT INTO live_counts (id, occupied, last_updated)
VALUES ($1, 1, $2)
ON CONFLICT (id) DO UPDATE
SET occupied = live_counts.occupied + 1,
    last_updated = EXCLUDED.last_updated`
	if _, err := conn(ctx, r.pool).Exec(ctx, stmt, domain.SummaryDocumentID, at); err != nil {
		return fmt.Errorf("increment occupied: %w", err)
	}
	return nil
}

// DecrementOccupied reads the count under a row lock and writes back the
// floored value, so concurrent exits are applied one after another.
func (r *CounterRepository) DecrementOccupied(ctx context.Context, at time.Time) (int, error) {
	var occupied int
	err := r.WithTx(ctx, func(txCtx context.Context) error {
		current, err := r.occupiedForUpdate(txCtx, at)
		if err != nil {
			return err
		}
		occupied = domain.DecrementFloor(current)
		return r.setOccupied(txCtx, occupied, at)
	})
	if err != nil {
		return 0, fmt.Errorf("decrement occupied: %w", err)
	}
	return occupied, nil
}

func (r *CounterRepository) ResetOccupied(ctx context.Context, at time.Time) error {
	if err := r.setOccupied(ctx, 0, at); err != nil {
		return fmt.Errorf("reset occupied: %w", err)
	}
	return nil
}

func (r *CounterRepository) GetSummary(ctx context.Context) (domain.OccupancySummary, error) {
	const query = `
SELECT occupied, total_capacity, last_updated
FROM live_counts
WHERE id = $1`
	var (
		sum         domain.OccupancySummary
		total       *int
		lastUpdated *time.Time
	)
	err := conn(ctx, r.pool).QueryRow(ctx, query, domain.SummaryDocumentID).Scan(&sum.Occupied, &total, &lastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OccupancySummary{}, domain.ErrSummaryNotFound
		}
		return domain.OccupancySummary{}, fmt.Errorf("get summary: %w", err)
	}
	if total != nil {
		sum.TotalCapacity = *total
	}
	if lastUpdated != nil {
		sum.LastUpdated = lastUpdated.UTC()
	}
	return sum, nil
}

// occupiedForUpdate locks the summary row and returns its count. A missing row
// is created first so that there is always something to lock; otherwise
// entries committing mid-exit would be overwritten by the exit's upsert.
func (r *CounterRepository) occupiedForUpdate(ctx context.Context, at time.Time) (int, error) {
	const seed = `
INSERT INTO live_counts (id, occupied, last_updated)
VALUES ($1, 0, $2)
ON CONFLICT (id) DO NOTHING`
	if _, err := conn(ctx, r.pool).Exec(ctx, seed, domain.SummaryDocumentID, at); err != nil {
		return 0, fmt.Errorf("seed summary: %w", err)
	}

	const query = `SELECT occupied FROM live_counts WHERE id = $1 FOR UPDATE`
	var occupied int
	if err := conn(ctx, r.pool).QueryRow(ctx, query, domain.SummaryDocumentID).Scan(&occupied); err != nil {
		return 0, fmt.Errorf("lock summary: %w", err)
	}
	return occupied, nil
}

func (r *CounterRepository) setOccupied(ctx context.Context, occupied int, at time.Time) error {
	const stmt = `
INSERT INTO live_counts (id, occupied, last_updated)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET occupied = EXCLUDED.occupied,
    last_updated = EXCLUDED.last_updated`
	_, err := conn(ctx, r.pool).Exec(ctx, stmt, domain.SummaryDocumentID, occupied, at)
	return err
}
