//nolint:errcheck // ok for this test code
package commentator

import (
	"context"
	"log"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gotest.tools/v3/assert"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/testsupport/testdb"
)

func createSampleEntry(db *pgxpool.Pool, athleteID string) *model.CommentatorInfo {
	info := &model.CommentatorInfo{
		AthleteID: athleteID,
		Homebase:  "Verbier",
		Team:      "Faction",
		Facts:     "Rookie of the year 2024",
	}
	if err := Upsert(context.Background(), db, info); err != nil {
		log.Fatalf("createSampleEntry: %v\n", err)
	}
	return info
}

func TestUpsert(t *testing.T) {
	pool := testdb.InitTestDb()
	ctx := context.Background()
	sample := createSampleEntry(pool, "ath-1")
	assert.Assert(t, !sample.ID.IsNil(), "Upsert must assign an id")

	got, err := LoadByAthleteID(ctx, pool, "ath-1")
	assert.NilError(t, err)
	assert.Equal(t, sample.ID, got.ID)
	assert.Equal(t, "Verbier", got.Homebase)

	// second write replaces the first
	updatedBy := uuid.Must(uuid.NewV7())
	update := &model.CommentatorInfo{
		AthleteID: "ath-1",
		Homebase:  "Chamonix",
		UpdatedBy: updatedBy,
	}
	assert.NilError(t, Upsert(ctx, pool, update))
	got, err = LoadByAthleteID(ctx, pool, "ath-1")
	assert.NilError(t, err)
	assert.Equal(t, sample.ID, got.ID, "athlete keeps its record id")
	assert.Equal(t, "Chamonix", got.Homebase)
	assert.Equal(t, "", got.Team)
	assert.Equal(t, updatedBy, got.UpdatedBy)
}

func TestLoadByAthleteIDNotFound(t *testing.T) {
	pool := testdb.InitTestDb()
	_, err := LoadByAthleteID(context.Background(), pool, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadByAthleteIDs(t *testing.T) {
	pool := testdb.InitTestDb()
	createSampleEntry(pool, "ath-1")
	createSampleEntry(pool, "ath-2")

	got, err := LoadByAthleteIDs(context.Background(), pool,
		[]string{"ath-1", "ath-2", "missing"})
	assert.NilError(t, err)
	assert.Equal(t, 2, len(got))
	assert.Assert(t, got["ath-1"] != nil)
	_, ok := got["missing"]
	assert.Assert(t, !ok)
}

func TestDeleteByAthleteID(t *testing.T) {
	pool := testdb.InitTestDb()
	ctx := context.Background()
	createSampleEntry(pool, "ath-1")

	num, err := DeleteByAthleteID(ctx, pool, "ath-1")
	assert.NilError(t, err)
	assert.Equal(t, 1, num)

	num, err = DeleteByAthleteID(ctx, pool, "ath-1")
	assert.NilError(t, err)
	assert.Equal(t, 0, num)
}
