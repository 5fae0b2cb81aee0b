package warmup

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/offline"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository/commentator"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/upstream"
)

var ErrAlreadyRunning = errors.New("refresher already running")

// Refresher re-fetches stale offline snapshots in the background so that
// dashboards keep working when the upstream API goes away.
type Refresher struct {
	manager  *offline.Manager
	client   *upstream.Client
	conn     repository.Querier
	interval time.Duration
	running  atomic.Bool
	l        *log.Logger
}

type RefresherOption func(*Refresher)

func WithRefreshInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithDBConn lets the refresher reload locally stored commentator notes
// so a refresh does not wipe them from the snapshot.
func WithDBConn(conn repository.Querier) RefresherOption {
	return func(r *Refresher) { r.conn = conn }
}

func WithRefresherLogger(l *log.Logger) RefresherOption {
	return func(r *Refresher) { r.l = l }
}

func NewRefresher(manager *offline.Manager, client *upstream.Client,
	opts ...RefresherOption,
) *Refresher {
	ret := &Refresher{
		manager:  manager,
		client:   client,
		interval: 10 * time.Minute,
		l:        log.Default().Named("warmup.refresher"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Running reports whether the refresh loop is active.
func (r *Refresher) Running() bool { return r.running.Load() }

// Start launches the refresh loop. Registering twice is an error so the
// registrar can treat "already running" as success on its next check.
func (r *Refresher) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	go func() {
		defer r.running.Store(false)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.refreshStale(ctx)
			}
		}
	}()
	return nil
}

func (r *Refresher) refreshStale(ctx context.Context) {
	for _, status := range r.manager.GetOfflineEventStatuses(ctx) {
		if !status.IsAvailable || !status.IsStale {
			continue
		}
		if err := r.refreshSnapshot(ctx, status.ID); err != nil {
			r.l.Warn("could not refresh snapshot",
				log.String("id", status.ID), log.ErrorField(err))
		}
	}
}

func (r *Refresher) refreshSnapshot(ctx context.Context, id string) error {
	eventIDs := splitSnapshotKey(id)
	athletes := make([]model.Athlete, 0)
	events := make([]model.EventInfo, 0)
	rankings := make([]model.SeriesData, 0)
	for _, eventID := range eventIDs {
		eventAthletes, err := r.client.EventAthletes(ctx, eventID, false)
		if err != nil {
			return err
		}
		if len(eventIDs) > 1 {
			for i := range eventAthletes {
				eventAthletes[i].EventSource = eventID
			}
		}
		athletes = append(athletes, eventAthletes...)
		if eventRankings, err := r.client.SeriesRankings(ctx, eventID, false); err == nil {
			rankings = append(rankings, eventRankings...)
		}
	}
	if all, err := r.client.Events(ctx, true, false); err == nil {
		for i := range all {
			for _, eventID := range eventIDs {
				if all[i].ID == eventID {
					events = append(events, all[i])
				}
			}
		}
	}
	_, err := r.manager.SaveEventForOffline(ctx,
		eventIDs, athletes, events, rankings, r.commentatorInfoFor(ctx, athletes))
	if err == nil {
		r.l.Info("refreshed snapshot", log.String("id", id))
	}
	return err
}

// commentatorInfoFor reloads the stored commentator notes for the roster.
// Snapshots are replaced as a whole, so losing these here would wipe them.
func (r *Refresher) commentatorInfoFor(ctx context.Context,
	athletes []model.Athlete,
) map[string][]model.CommentatorInfo {
	if r.conn == nil {
		return map[string][]model.CommentatorInfo{}
	}
	ids := make([]string, 0, len(athletes))
	for i := range athletes {
		ids = append(ids, athletes[i].ID)
	}
	ret, err := commentator.LoadByAthleteIDs(ctx, r.conn, ids)
	if err != nil {
		r.l.Warn("commentator info lookup failed", log.ErrorField(err))
		return map[string][]model.CommentatorInfo{}
	}
	return ret
}

func splitSnapshotKey(id string) []string {
	if rest, ok := strings.CutPrefix(id, "multi_"); ok {
		return strings.Split(rest, "_")
	}
	return []string{id}
}
