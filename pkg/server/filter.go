package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/ranking"
)

// FilterRequest carries the dashboard's current roster and rankings plus
// the selection to apply. Shipping the data with the request keeps the
// endpoint stateless and lets offline dashboards filter snapshot data.
type FilterRequest struct {
	Athletes  []model.Athlete    `json:"athletes"`
	Series    []model.SeriesData `json:"series,omitempty"`
	Region    string             `json:"region,omitempty"`
	Selection ranking.Selection  `json:"selection"`
}

type FilterResponse struct {
	Athletes []model.Athlete         `json:"athletes"`
	Groups   []ranking.DivisionGroup `json:"groups,omitempty"`
	Total    int                     `json:"total"`
}

func (s *Server) handleAthleteFilter(c *fiber.Ctx) error {
	var req FilterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	var opts []ranking.IndexOption
	if req.Region != "" {
		opts = append(opts, ranking.WithRegion(req.Region))
	}
	ix := ranking.BuildFilterIndex(req.Series, opts...)

	list := ranking.DisplayList(req.Athletes, ix, req.Selection)
	ret := FilterResponse{Athletes: list, Total: len(list)}
	if req.Selection.Sort == ranking.SortByDivision ||
		req.Selection.Sort == ranking.SortByRanking {
		ret.Groups = ranking.GroupedDisplay(list, req.Selection)
	}
	return c.JSON(ret)
}
