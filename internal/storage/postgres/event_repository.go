package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) AppendEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, type, license_plate, zone_id, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := conn(ctx, r.pool).Exec(ctx, stmt,
		event.ID,
		string(event.Type),
		event.LicensePlate,
		event.ZoneID,
		event.Timestamp,
	)
	if err != nil {
		switch sqlState(err) {
		case sqlStateCheckViolation:
			return domain.ErrInvalidEventType
		case sqlStateInvalidText:
			return fmt.Errorf("append event: invalid id %q: %w", event.ID, err)
		}
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (r *EventRepository) RecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	const query = `
SELECT id, type, license_plate, zone_id, created_at
FROM events
ORDER BY created_at DESC
LIMIT $1`
	rows, err := conn(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0, limit)
	for rows.Next() {
		var (
			event domain.Event
			kind  string
		)
		if err := rows.Scan(&event.ID, &kind, &event.LicensePlate, &event.ZoneID, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Type = domain.EventType(kind)
		event.Timestamp = event.Timestamp.UTC()
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}
