package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/cache"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/repository/commentator"
)

func (s *Server) newCommentatorCache() cache.Cache[string, model.CommentatorInfo] {
	return cache.NewLoader(
		cache.WithExpiration[string, model.CommentatorInfo](5*time.Minute),
		cache.WithLoader(func(ctx context.Context, athleteID string) (
			*model.CommentatorInfo, error,
		) {
			return commentator.LoadByAthleteID(ctx, s.pool, athleteID)
		}),
	)
}

func (s *Server) handleCommentatorInfo(c *fiber.Ctx) error {
	athleteID := c.Params("athleteId")
	info, err := s.commentatorCache.Get(c.Context(), athleteID)
	if err != nil {
		if errors.Is(err, commentator.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "no commentator info")
		}
		s.l.Warn("commentator info lookup failed",
			log.String("athleteId", athleteID), log.ErrorField(err))
		return errorJSON(c, fiber.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(info)
}

func (s *Server) handleSaveCommentatorInfo(c *fiber.Ctx) error {
	athleteID := c.Params("athleteId")
	var info model.CommentatorInfo
	if err := c.BodyParser(&info); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	info.AthleteID = athleteID
	if userID, ok := c.Locals("userId").(uuid.UUID); ok {
		info.UpdatedBy = userID
	}

	if err := commentator.Upsert(c.Context(), s.pool, &info); err != nil {
		s.l.Error("commentator info save failed",
			log.String("athleteId", athleteID), log.ErrorField(err))
		return errorJSON(c, fiber.StatusInternalServerError, "save failed")
	}
	s.commentatorCache.Invalidate(c.Context(), athleteID)

	// best effort sync to the upstream API; local storage is authoritative
	if err := s.upstream.SaveCommentatorInfo(c.Context(), &info); err != nil {
		s.l.Warn("upstream commentator sync failed",
			log.String("athleteId", athleteID), log.ErrorField(err))
	}
	return c.JSON(info)
}
