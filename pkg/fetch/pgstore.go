package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository/rescache"
)

// PGStore persists cached resources in the resource_cache table.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	data, updatedAt, err := rescache.Get(ctx, s.pool, key)
	if err != nil {
		if errors.Is(err, rescache.ErrNotFound) {
			return nil, time.Time{}, ErrNoEntry
		}
		return nil, time.Time{}, err
	}
	return data, updatedAt, nil
}

func (s *PGStore) Put(ctx context.Context, key string, data []byte) error {
	return rescache.Put(ctx, s.pool, key, data)
}
