// Package postgres stores parking events and the live count in PostgreSQL.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the event log and the live counter over one pool.
type Store struct {
	*EventRepository
	*CounterRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		EventRepository:   NewEventRepository(pool),
		CounterRepository: NewCounterRepository(pool),
	}
}
