package storage

import (
	"context"
	"time"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/live"
)

func (Disconnected) AppendEvent(context.Context, domain.Event) error {
	return domain.ErrStoreUnavailable
}

func (Disconnected) RecentEvents(context.Context, int) ([]domain.Event, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Disconnected) IncrementOccupied(context.Context, time.Time) error {
	return domain.ErrStoreUnavailable
}

func (Disconnected) DecrementOccupied(context.Context, time.Time) (int, error) {
	return 0, domain.ErrStoreUnavailable
}

func (Disconnected) ResetOccupied(context.Context, time.Time) error {
	return domain.ErrStoreUnavailable
}

func (Disconnected) GetSummary(context.Context) (domain.OccupancySummary, error) {
	return domain.OccupancySummary{}, domain.ErrStoreUnavailable
}

func (Disconnected) WatchSummary(context.Context) (live.SummaryStream, error) {
	return nil, domain.ErrStoreUnavailable
}
