package rescache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository"
)

var ErrNotFound = errors.New("cache entry not found")

// Put writes the payload for the key, replacing any previous entry.
func Put(ctx context.Context, conn repository.Querier, key string, payload []byte,
) error {
	_, err := conn.Exec(ctx, `
	insert into resource_cache (key, payload, updated_at)
	values ($1,$2,now())
	on conflict (key) do update set
		payload=excluded.payload, updated_at=now()
	`, key, payload)
	return err
}

func Get(ctx context.Context, conn repository.Querier, key string) (
	[]byte, time.Time, error,
) {
	row := conn.QueryRow(ctx,
		"select payload, updated_at from resource_cache where key=$1", key)
	var payload []byte
	var updatedAt time.Time
	if err := row.Scan(&payload, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, ErrNotFound
		}
		return nil, time.Time{}, err
	}
	return payload, updatedAt, nil
}

// deletes an entry, returns number of rows deleted.
func Delete(ctx context.Context, conn repository.Querier, key string) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from resource_cache where key=$1", key)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}
