package commentator

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository"
)

var ErrNotFound = errors.New("commentator info not found")

var selector = `select id, athlete_id, homebase, team, sponsors, facts,
	injuries, instagram, youtube, website,
	coalesce(updated_by,'00000000-0000-0000-0000-000000000000'), updated_at
	from commentator_info`

// Upsert writes the record for the athlete; there is at most one record
// per athlete, a second write replaces the first.
func Upsert(ctx context.Context, conn repository.Querier,
	info *model.CommentatorInfo,
) error {
	if info.ID.IsNil() {
		var err error
		if info.ID, err = uuid.NewV7(); err != nil {
			return err
		}
	}
	_, err := conn.Exec(ctx, `
	insert into commentator_info (
		id, athlete_id, homebase, team, sponsors, facts, injuries,
		instagram, youtube, website, updated_by, updated_at
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
	on conflict (athlete_id) do update set
		homebase=excluded.homebase,
		team=excluded.team,
		sponsors=excluded.sponsors,
		facts=excluded.facts,
		injuries=excluded.injuries,
		instagram=excluded.instagram,
		youtube=excluded.youtube,
		website=excluded.website,
		updated_by=excluded.updated_by,
		updated_at=now()
	`,
		info.ID, info.AthleteID, info.Homebase, info.Team, info.Sponsors,
		info.Facts, info.Injuries, info.Instagram, info.Youtube, info.Website,
		nilIfEmpty(info.UpdatedBy),
	)
	return err
}

func LoadByAthleteID(ctx context.Context, conn repository.Querier, athleteID string) (
	*model.CommentatorInfo, error,
) {
	row := conn.QueryRow(ctx, selector+" where athlete_id=$1", athleteID)
	return readData(row)
}

func LoadByAthleteIDs(ctx context.Context, conn repository.Querier,
	athleteIDs []string,
) (map[string][]model.CommentatorInfo, error) {
	rows, err := conn.Query(ctx, selector+" where athlete_id=any($1)", athleteIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make(map[string][]model.CommentatorInfo)
	for rows.Next() {
		item, err := readData(rows)
		if err != nil {
			return nil, err
		}
		ret[item.AthleteID] = append(ret[item.AthleteID], *item)
	}
	return ret, rows.Err()
}

// deletes an entry, returns number of rows deleted.
func DeleteByAthleteID(ctx context.Context, conn repository.Querier,
	athleteID string,
) (int, error) {
	cmdTag, err := conn.Exec(ctx,
		"delete from commentator_info where athlete_id=$1", athleteID)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func readData(row pgx.Row) (*model.CommentatorInfo, error) {
	var item model.CommentatorInfo
	if err := row.Scan(
		&item.ID, &item.AthleteID, &item.Homebase, &item.Team, &item.Sponsors,
		&item.Facts, &item.Injuries, &item.Instagram, &item.Youtube,
		&item.Website, &item.UpdatedBy, &item.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func nilIfEmpty(id uuid.UUID) interface{} {
	if id.IsNil() {
		return nil
	}
	return id
}
