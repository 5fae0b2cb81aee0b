//nolint:errcheck // ok for this test code
package snapshot

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/testsupport/basedata"
	"github.com/fwt-tools/fwt-dashboard-sync-go/testsupport/testdb"
)

func sampleSnapshot(id string, saved time.Time) *model.OfflineEventSnapshot {
	return &model.OfflineEventSnapshot{
		ID:              id,
		Events:          []model.EventInfo{basedata.SampleEvent()},
		Athletes:        basedata.SampleAthletes(),
		SeriesRankings:  basedata.SampleSeries(),
		CommentatorInfo: basedata.SampleCommentatorInfo(),
		Timestamp:       saved.UnixMilli(),
		ExpiresAt:       saved.Add(48 * time.Hour).UnixMilli(),
	}
}

func createSampleEntry(db *pgxpool.Pool, id string) *model.OfflineEventSnapshot {
	snap := sampleSnapshot(id, basedata.TestTime())
	if err := Save(context.Background(), db, snap); err != nil {
		log.Fatalf("createSampleEntry: %v\n", err)
	}
	return snap
}

func TestSaveAndLoad(t *testing.T) {
	pool := testdb.InitTestDb()
	ctx := context.Background()
	sample := createSampleEntry(pool, "evt-1")

	got, err := LoadByID(ctx, pool, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, sample.ID, got.ID)
	assert.Equal(t, sample.Athletes, got.Athletes)
	assert.Equal(t, sample.Timestamp, got.Timestamp)
	assert.Equal(t, sample.CommentatorInfo, got.CommentatorInfo)

	// replace as a whole
	replacement := sampleSnapshot("evt-1", basedata.TestTime().Add(time.Hour))
	replacement.Athletes = replacement.Athletes[:1]
	require.NoError(t, Save(ctx, pool, replacement))
	got, err = LoadByID(ctx, pool, "evt-1")
	require.NoError(t, err)
	assert.Len(t, got.Athletes, 1)
	assert.Equal(t, replacement.Timestamp, got.Timestamp)
}

func TestLoadByIDNotFound(t *testing.T) {
	pool := testdb.InitTestDb()
	_, err := LoadByID(context.Background(), pool, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadStatus(t *testing.T) {
	pool := testdb.InitTestDb()
	ctx := context.Background()
	sample := createSampleEntry(pool, "evt-1")

	tests := []struct {
		name      string
		now       time.Time
		wantStale bool
	}{
		{name: "fresh", now: basedata.TestTime().Add(time.Hour), wantStale: false},
		{
			name:      "stale after expiry",
			now:       basedata.TestTime().Add(49 * time.Hour),
			wantStale: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadStatus(ctx, pool, "evt-1", tt.now)
			require.NoError(t, err)
			assert.True(t, got.IsAvailable)
			assert.Equal(t, tt.wantStale, got.IsStale)
			assert.Equal(t, len(sample.Athletes), got.TotalAthletes)
			assert.Positive(t, got.EstimatedSize)
			assert.Equal(t, sample.ExpiresAt, got.ExpiresAt)
		})
	}
}

func TestLoadAllStatuses(t *testing.T) {
	pool := testdb.InitTestDb()
	createSampleEntry(pool, "evt-1")
	createSampleEntry(pool, "multi_evt-2_evt-3")

	got, err := LoadAllStatuses(context.Background(), pool, basedata.TestTime())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDeleteByID(t *testing.T) {
	pool := testdb.InitTestDb()
	ctx := context.Background()
	createSampleEntry(pool, "evt-1")

	num, err := DeleteByID(ctx, pool, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 1, num)

	// deleting again is a no-op
	num, err = DeleteByID(ctx, pool, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, num)
}

func TestDeleteExpired(t *testing.T) {
	pool := testdb.InitTestDb()
	ctx := context.Background()
	createSampleEntry(pool, "evt-old")
	fresh := sampleSnapshot("evt-new", basedata.TestTime().Add(24*time.Hour))
	require.NoError(t, Save(ctx, pool, fresh))

	// evt-old expires 48h after TestTime, evt-new 24h later
	num, err := DeleteExpired(ctx, pool, basedata.TestTime().Add(49*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, num)

	_, err = LoadByID(ctx, pool, "evt-old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = LoadByID(ctx, pool, "evt-new")
	assert.NoError(t, err)
}
