package model

import "github.com/shopspring/decimal"

// SeriesData holds the rankings of one series. The series name encodes
// year and category ("FWT Pro 2024", "IFSA Challenger ..."), resolved by
// the ranking package's classifier.
type SeriesData struct {
	SeriesID   string                      `json:"series_id"`
	SeriesName string                      `json:"series_name"`
	Divisions  map[string][]AthleteRanking `json:"divisions"`
}

type AthleteRanking struct {
	Athlete Athlete          `json:"athlete"`
	Place   *int             `json:"place,omitempty"`
	Points  *decimal.Decimal `json:"points,omitempty"`
	Results []EventResult    `json:"results,omitempty"`
}

type EventResult struct {
	EventID   string           `json:"event_id"`
	EventName string           `json:"event_name"`
	Place     *int             `json:"place,omitempty"`
	Points    *decimal.Decimal `json:"points,omitempty"`
	Date      string           `json:"date,omitempty"`
}

// TotalPoints sums the points of all results. Missing values count as zero.
func (r *AthleteRanking) TotalPoints() decimal.Decimal {
	sum := decimal.Zero
	for i := range r.Results {
		if r.Results[i].Points != nil {
			sum = sum.Add(*r.Results[i].Points)
		}
	}
	return sum
}
