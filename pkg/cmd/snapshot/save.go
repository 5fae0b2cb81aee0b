package snapshot

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/config"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/db/postgres"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/offline"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository/commentator"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/upstream"
)

func newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save eventId [eventId...]",
		Short: "fetches event data and stores it as an offline snapshot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return saveSnapshot(cmd.Context(), args)
		},
	}
}

func saveSnapshot(ctx context.Context, eventIDs []string) error {
	pool := postgres.InitWithURL(config.DB)
	defer pool.Close()
	client := upstream.NewClient(config.APIURL,
		upstream.WithTimeout(30*time.Second))
	manager := offline.NewManager(pool)

	allEvents, err := client.Events(ctx, true, false)
	if err != nil {
		return err
	}
	athletes := make([]model.Athlete, 0)
	events := make([]model.EventInfo, 0, len(eventIDs))
	rankings := make([]model.SeriesData, 0)
	multi := len(eventIDs) > 1
	for _, eventID := range eventIDs {
		roster, err := client.EventAthletes(ctx, eventID, false)
		if err != nil {
			return err
		}
		for i := range roster {
			if multi {
				roster[i].EventSource = eventID
			}
			athletes = append(athletes, roster[i])
		}
		for i := range allEvents {
			if allEvents[i].ID == eventID {
				events = append(events, allEvents[i])
			}
		}
		if series, err := client.SeriesRankings(ctx, eventID, false); err == nil {
			rankings = append(rankings, series...)
		} else {
			log.Warn("no rankings for event",
				log.String("eventId", eventID), log.ErrorField(err))
		}
	}

	ids := make([]string, 0, len(athletes))
	for i := range athletes {
		ids = append(ids, athletes[i].ID)
	}
	info, err := commentator.LoadByAthleteIDs(ctx, pool, ids)
	if err != nil {
		log.Warn("could not load commentator info", log.ErrorField(err))
		info = map[string][]model.CommentatorInfo{}
	}

	snap, err := manager.SaveEventForOffline(ctx, eventIDs,
		athletes, events, rankings, info)
	if err != nil {
		return err
	}
	log.Info("snapshot saved",
		log.String("id", snap.ID),
		log.Int("athletes", len(snap.Athletes)),
		log.Time("expiresAt", time.UnixMilli(snap.ExpiresAt)))
	return nil
}
