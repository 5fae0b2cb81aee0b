package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
)

const keepAliveInterval = 25 * time.Second

// handleLiveScoring streams scoring updates for one event as server sent
// events. The stream ends when the client disconnects or the proxy shuts
// down.
func (s *Server) handleLiveScoring(c *fiber.Ctx) error {
	if s.scoring == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "live scoring disabled")
	}
	eventID := c.Params("eventId")
	updates, cancel := s.scoring.Subscribe(eventID)
	s.l.Debug("live scoring stream opened", log.String("eventId", eventID))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				payload, err := json.Marshal(update)
				if err != nil {
					s.l.Warn("could not encode scoring update", log.ErrorField(err))
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}
