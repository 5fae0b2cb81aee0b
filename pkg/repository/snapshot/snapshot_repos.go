package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository"
)

var ErrNotFound = errors.New("snapshot not found")

// Save stores the snapshot, replacing any existing one with the same id.
func Save(ctx context.Context, conn repository.Querier,
	snap *model.OfflineEventSnapshot,
) error {
	_, err := conn.Exec(ctx, `
	insert into snapshot (id, data, total_athletes, saved_at, expires_at)
	values ($1,$2,$3,$4,$5)
	on conflict (id) do update set
		data=excluded.data,
		total_athletes=excluded.total_athletes,
		saved_at=excluded.saved_at,
		expires_at=excluded.expires_at
	`,
		snap.ID, snap, len(snap.Athletes),
		time.UnixMilli(snap.Timestamp).UTC(),
		time.UnixMilli(snap.ExpiresAt).UTC(),
	)
	return err
}

func LoadByID(ctx context.Context, conn repository.Querier, id string) (
	*model.OfflineEventSnapshot, error,
) {
	row := conn.QueryRow(ctx, "select data from snapshot where id=$1", id)
	var ret model.OfflineEventSnapshot
	if err := row.Scan(&ret); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func LoadStatus(ctx context.Context, conn repository.Querier,
	id string, now time.Time,
) (*model.SnapshotStatus, error) {
	row := conn.QueryRow(ctx, `
	select id, total_athletes, pg_column_size(data), saved_at, expires_at
	from snapshot where id=$1`, id)
	ret, err := readStatus(row, now)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ret, nil
}

func LoadAllStatuses(ctx context.Context, conn repository.Querier, now time.Time) (
	[]*model.SnapshotStatus, error,
) {
	rows, err := conn.Query(ctx, `
	select id, total_athletes, pg_column_size(data), saved_at, expires_at
	from snapshot order by saved_at desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.SnapshotStatus, 0)
	for rows.Next() {
		item, err := readStatus(rows, now)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// deletes an entry, returns number of rows deleted.
func DeleteByID(ctx context.Context, conn repository.Querier, id string) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from snapshot where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// DeleteExpired removes all snapshots whose expiry lies before ref.
func DeleteExpired(ctx context.Context, conn repository.Querier, ref time.Time) (
	int, error,
) {
	cmdTag, err := conn.Exec(ctx, "delete from snapshot where expires_at < $1", ref)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func readStatus(row pgx.Row, now time.Time) (*model.SnapshotStatus, error) {
	var item model.SnapshotStatus
	var size int64
	var savedAt, expiresAt time.Time
	if err := row.Scan(
		&item.ID, &item.TotalAthletes, &size, &savedAt, &expiresAt,
	); err != nil {
		return nil, err
	}
	item.IsAvailable = true
	item.EstimatedSize = size
	item.Timestamp = savedAt.UnixMilli()
	item.ExpiresAt = expiresAt.UnixMilli()
	item.IsStale = now.UnixMilli() > item.ExpiresAt
	return &item, nil
}
