package pgx

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// Ensure HealthStore implements store.HealthStore
var _ store.HealthStore = (*HealthStore)(nil)

// HealthStore provides health check operations using a pgx pool
type HealthStore struct {
	pool *pgxpool.Pool
}

// NewHealthStore creates a new HealthStore
func NewHealthStore(pool *pgxpool.Pool) *HealthStore {
	return &HealthStore{pool: pool}
}

// CheckConnectivity verifies database connectivity
func (s *HealthStore) CheckConnectivity(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
