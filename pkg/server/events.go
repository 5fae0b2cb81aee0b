package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/fetch"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/upstream"
)

// proxySource performs the upstream call for a proxied resource. force is
// forwarded so the upstream's own caches are bypassed as well.
type proxySource func(ctx context.Context, force bool) ([]byte, error)

// proxyFetch resolves an upstream resource through the fetch layer and
// writes the raw JSON payload. Stale cache fallbacks are flagged via the
// X-Data-Stale header so dashboards can show a connectivity banner.
func (s *Server) proxyFetch(
	c *fiber.Ctx,
	key string,
	policy fetch.Policy,
	src proxySource,
) error {
	force := c.QueryBool("force_refresh", false)
	res, err := s.fetcher.Fetch(c.Context(), key, policy, force,
		func(ctx context.Context) ([]byte, error) {
			return src(ctx, force)
		})
	if err != nil {
		s.l.Warn("upstream fetch failed",
			log.String("key", key), log.ErrorField(err))
		return errorJSON(c, fiber.StatusBadGateway, "upstream unavailable")
	}
	if res.Stale {
		c.Set("X-Data-Stale", "true")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(res.Data)
}

func (s *Server) handleEvents(c *fiber.Ctx) error {
	includePast := c.QueryBool("include_past", false)
	key := fmt.Sprintf("events:%t", includePast)
	return s.proxyFetch(c, key, fetch.NetworkFirst,
		func(ctx context.Context, force bool) ([]byte, error) {
			q := upstream.ForceQuery(force)
			if includePast {
				q.Set("include_past", "true")
			}
			return s.upstream.GetRaw(ctx, "/api/events", q)
		})
}

func (s *Server) handleEventAthletes(c *fiber.Ctx) error {
	id := c.Params("id")
	return s.proxyFetch(c, "athletes:"+id, fetch.NetworkFirst,
		func(ctx context.Context, force bool) ([]byte, error) {
			return s.upstream.GetRaw(ctx, "/api/events/"+id+"/athletes",
				upstream.ForceQuery(force))
		})
}

func (s *Server) handleSeriesRankings(c *fiber.Ctx) error {
	id := c.Params("eventId")
	return s.proxyFetch(c, "rankings:"+id, fetch.NetworkFirst,
		func(ctx context.Context, force bool) ([]byte, error) {
			return s.upstream.GetRaw(ctx, "/api/series/rankings/"+id,
				upstream.ForceQuery(force))
		})
}

func (s *Server) handleEventHistory(c *fiber.Ctx) error {
	athleteID := c.Params("id")
	eventID := c.Params("eventId")
	key := fmt.Sprintf("history:%s:%s", athleteID, eventID)
	return s.proxyFetch(c, key, fetch.NetworkFirst,
		func(ctx context.Context, force bool) ([]byte, error) {
			return s.upstream.GetRaw(ctx,
				fmt.Sprintf("/api/athlete/%s/event-history/%s", athleteID, eventID),
				upstream.ForceQuery(force))
		})
}

// Translations rarely change, so they are served cache first.
func (s *Server) handleTranslations(c *fiber.Ctx) error {
	locale := c.Params("locale")
	return s.proxyFetch(c, "translations:"+locale, fetch.CacheFirst,
		func(ctx context.Context, force bool) ([]byte, error) {
			return s.upstream.GetRaw(ctx, "/api/translations/"+locale,
				upstream.ForceQuery(force))
		})
}
