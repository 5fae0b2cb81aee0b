package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/offline"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository/commentator"
)

// SaveOfflineRequest asks the service to assemble and store a snapshot
// for the given events. Multi event snapshots get a combined key.
type SaveOfflineRequest struct {
	EventIDs []string `json:"eventIds"`
}

func (s *Server) handleSaveOffline(c *fiber.Ctx) error {
	var req SaveOfflineRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.EventIDs) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "eventIds required")
	}

	ctx := c.Context()
	athletes := make([]model.Athlete, 0)
	events := make([]model.EventInfo, 0, len(req.EventIDs))
	rankings := make([]model.SeriesData, 0)

	allEvents, err := s.upstream.Events(ctx, true, false)
	if err != nil {
		s.l.Warn("snapshot event lookup failed", log.ErrorField(err))
		return errorJSON(c, fiber.StatusBadGateway, "upstream unavailable")
	}
	multi := len(req.EventIDs) > 1
	for _, eventID := range req.EventIDs {
		roster, err := s.upstream.EventAthletes(ctx, eventID, false)
		if err != nil {
			s.l.Warn("snapshot roster fetch failed",
				log.String("eventId", eventID), log.ErrorField(err))
			return errorJSON(c, fiber.StatusBadGateway, "upstream unavailable")
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
		// rankings are nice to have; a failed fetch does not block the save
		if series, err := s.upstream.SeriesRankings(ctx, eventID, false); err == nil {
			rankings = append(rankings, series...)
		} else {
			s.l.Debug("snapshot rankings fetch failed",
				log.String("eventId", eventID), log.ErrorField(err))
		}
	}

	snap, err := s.offline.SaveEventForOffline(ctx, req.EventIDs,
		athletes, events, rankings, s.commentatorInfoFor(c, athletes))
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "could not save snapshot")
	}
	return c.Status(fiber.StatusCreated).
		JSON(s.offline.GetOfflineEventStatus(ctx, []string{snap.ID}))
}

// commentatorInfoFor collects locally stored commentator notes for the
// snapshot roster, keyed by athlete id.
func (s *Server) commentatorInfoFor(c *fiber.Ctx, athletes []model.Athlete,
) map[string][]model.CommentatorInfo {
	ids := make([]string, 0, len(athletes))
	for i := range athletes {
		ids = append(ids, athletes[i].ID)
	}
	ret, err := commentator.LoadByAthleteIDs(c.Context(), s.pool, ids)
	if err != nil {
		s.l.Warn("snapshot commentator info lookup failed", log.ErrorField(err))
		return map[string][]model.CommentatorInfo{}
	}
	return ret
}

func (s *Server) handleOfflineStatuses(c *fiber.Ctx) error {
	return c.JSON(s.offline.GetOfflineEventStatuses(c.Context()))
}

func (s *Server) handleGetOffline(c *fiber.Ctx) error {
	ids := splitSnapshotID(c.Params("id"))
	snap, err := s.offline.GetOfflineEvent(c.Context(), ids)
	if err != nil {
		if errors.Is(err, offline.ErrNotAvailable) {
			return errorJSON(c, fiber.StatusNotFound, "offline data unavailable")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "could not load snapshot")
	}
	return c.JSON(snap)
}

func (s *Server) handleDeleteOffline(c *fiber.Ctx) error {
	if err := s.offline.DeleteOfflineEvent(c.Context(), c.Params("id")); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "could not delete snapshot")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// splitSnapshotID accepts both a plain event id and a combined
// multi_<id1>_<id2> key.
func splitSnapshotID(id string) []string {
	if rest, ok := strings.CutPrefix(id, "multi_"); ok {
		return strings.Split(rest, "_")
	}
	return []string{id}
}
