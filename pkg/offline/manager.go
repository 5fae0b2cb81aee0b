package offline

import (
	"context"
	"errors"
	"time"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository/snapshot"
)

// DefaultTTL is the snapshot lifetime when none is configured.
const DefaultTTL = 48 * time.Hour

// ErrNotAvailable is returned when no usable snapshot exists. Storage
// engine failures are folded into this error as well: offline data is
// best effort and must never break the caller.
var ErrNotAvailable = errors.New("offline data unavailable")

// Manager owns the offline snapshot store.
type Manager struct {
	conn repository.Querier
	ttl  time.Duration
	now  func() time.Time
	l    *log.Logger
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces the time source, used by staleness tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.l = l }
}

func NewManager(conn repository.Querier, opts ...Option) *Manager {
	ret := &Manager{
		conn: conn,
		ttl:  DefaultTTL,
		now:  time.Now,
		l:    log.Default().Named("offline"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// SaveEventForOffline builds and stores a snapshot for the given events.
// An existing snapshot with the same key is replaced as a whole.
//
//nolint:whitespace // can't make both editor and linter happy
func (m *Manager) SaveEventForOffline(ctx context.Context,
	eventIDs []string,
	athletes []model.Athlete,
	events []model.EventInfo,
	seriesRankings []model.SeriesData,
	commentatorInfo map[string][]model.CommentatorInfo,
) (*model.OfflineEventSnapshot, error) {
	if len(eventIDs) == 0 {
		return nil, errors.New("no event ids")
	}
	now := m.now()
	snap := &model.OfflineEventSnapshot{
		ID:              model.SnapshotKey(eventIDs),
		Events:          events,
		Athletes:        athletes,
		SeriesRankings:  seriesRankings,
		CommentatorInfo: commentatorInfo,
		Timestamp:       now.UnixMilli(),
		ExpiresAt:       now.Add(m.ttl).UnixMilli(),
	}
	if err := snapshot.Save(ctx, m.conn, snap); err != nil {
		m.l.Warn("could not save snapshot",
			log.String("id", snap.ID), log.ErrorField(err))
		return nil, ErrNotAvailable
	}
	m.l.Info("saved offline snapshot",
		log.String("id", snap.ID),
		log.Int("athletes", len(snap.Athletes)),
		log.Time("expiresAt", time.UnixMilli(snap.ExpiresAt)))
	return snap, nil
}

// GetOfflineEvent loads the snapshot payload for the given events.
func (m *Manager) GetOfflineEvent(ctx context.Context, eventIDs []string) (
	*model.OfflineEventSnapshot, error,
) {
	ret, err := snapshot.LoadByID(ctx, m.conn, model.SnapshotKey(eventIDs))
	if err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			m.l.Warn("could not load snapshot", log.ErrorField(err))
		}
		return nil, ErrNotAvailable
	}
	return ret, nil
}

// GetOfflineEventStatus reports availability for the given events.
// Never fails; problems show up as "not available".
func (m *Manager) GetOfflineEventStatus(ctx context.Context, eventIDs []string,
) *model.SnapshotStatus {
	id := model.SnapshotKey(eventIDs)
	ret, err := snapshot.LoadStatus(ctx, m.conn, id, m.now())
	if err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			m.l.Warn("could not load snapshot status",
				log.String("id", id), log.ErrorField(err))
		}
		return &model.SnapshotStatus{ID: id}
	}
	return ret
}

// GetOfflineEventStatuses lists the status of all stored snapshots.
// Expired snapshots are removed first (opportunistic sweep on read pass).
func (m *Manager) GetOfflineEventStatuses(ctx context.Context,
) []*model.SnapshotStatus {
	m.SweepExpired(ctx)
	ret, err := snapshot.LoadAllStatuses(ctx, m.conn, m.now())
	if err != nil {
		m.l.Warn("could not load snapshot statuses", log.ErrorField(err))
		return []*model.SnapshotStatus{}
	}
	return ret
}

// DeleteOfflineEvent removes a snapshot by key. Deleting an absent
// snapshot is not an error.
func (m *Manager) DeleteOfflineEvent(ctx context.Context, id string) error {
	num, err := snapshot.DeleteByID(ctx, m.conn, id)
	if err != nil {
		m.l.Warn("could not delete snapshot",
			log.String("id", id), log.ErrorField(err))
		return ErrNotAvailable
	}
	m.l.Debug("deleted snapshot", log.String("id", id), log.Int("rows", num))
	return nil
}

// SweepExpired removes snapshots past their expiry. Returns the number of
// removed snapshots.
func (m *Manager) SweepExpired(ctx context.Context) int {
	num, err := snapshot.DeleteExpired(ctx, m.conn, m.now())
	if err != nil {
		m.l.Warn("sweep failed", log.ErrorField(err))
		return 0
	}
	if num > 0 {
		m.l.Info("removed expired snapshots", log.Int("num", num))
	}
	return num
}

// TTL returns the configured snapshot lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }
