package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/live"
)

// SummaryChannel is the NOTIFY channel raised by the live_counts trigger.
const SummaryChannel = "live_counts_changed"

const unlistenTimeout = 2 * time.Second

// WatchSummary holds a dedicated connection listening on SummaryChannel. The
// first Next returns the current row; each later Next blocks for a
// notification and re-reads it.
func (r *CounterRepository) WatchSummary(ctx context.Context) (live.SummaryStream, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+SummaryChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", SummaryChannel, err)
	}
	return &summaryStream{ctx: ctx, repo: r, conn: conn}, nil
}

type summaryStream struct {
	ctx     context.Context
	repo    *CounterRepository
	conn    *pgxpool.Conn
	started bool
	once    sync.Once
}

func (s *summaryStream) Next() (domain.SummarySnapshot, error) {
	if !s.started {
		s.started = true
		return s.read()
	}
	for {
		n, err := s.conn.Conn().WaitForNotification(s.ctx)
		if err != nil {
			return domain.SummarySnapshot{}, fmt.Errorf("wait for notification: %w", err)
		}
		if n.Payload == domain.SummaryDocumentID {
			return s.read()
		}
	}
}

func (s *summaryStream) read() (domain.SummarySnapshot, error) {
	sum, err := s.repo.GetSummary(s.ctx)
	if errors.Is(err, domain.ErrSummaryNotFound) {
		return domain.SummarySnapshot{}, nil
	}
	if err != nil {
		return domain.SummarySnapshot{}, err
	}
	return domain.SummarySnapshot{Summary: sum, Exists: true}, nil
}

func (s *summaryStream) Stop() {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
		defer cancel()
		// A connection interrupted mid-wait is not safe to hand back.
		if _, err := s.conn.Exec(ctx, "UNLISTEN "+SummaryChannel); err != nil {
			_ = s.conn.Conn().Close(ctx)
		}
		s.conn.Release()
	})
}
