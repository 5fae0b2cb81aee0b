package basedata

import (
	"time"

	"github.com/fwt-tools/fwt-dashboard-sync-go/pkg/model"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2025-01-25T09:00:00Z")
	return t
}

func SampleEvent() model.EventInfo {
	return model.EventInfo{
		ID:       "evt-1",
		Name:     "FWT Pro Verbier 2025",
		Location: "Verbier",
		Date:     "2025-01-25",
		Status:   "live",
	}
}

func SampleAthletes() []model.Athlete {
	return []model.Athlete{
		{
			ID:          "ath-1",
			Name:        "Maude Besse",
			Bib:         "1",
			Nationality: "SUI",
			Division:    "Ski Women",
			Status:      model.StatusConfirmed,
		},
		{
			ID:          "ath-2",
			Name:        "Leo Martin",
			Bib:         "2",
			Nationality: "FRA",
			Division:    "Ski Men",
			Status:      model.StatusConfirmed,
		},
		{
			ID:          "ath-3",
			Name:        "Koa Tanaka",
			Bib:         "",
			Nationality: "JPN",
			Division:    "Snowboard Men",
			Status:      model.StatusWaitlisted,
		},
	}
}

func intPtr(v int) *int { return &v }

func SampleSeries() []model.SeriesData {
	return []model.SeriesData{
		{
			SeriesID:   "ser-1",
			SeriesName: "Freeride World Tour 2025",
			Divisions: map[string][]model.AthleteRanking{
				"Ski Women": {
					{
						Athlete: model.Athlete{ID: "ath-1", Name: "Maude Besse"},
						Place:   intPtr(2),
					},
				},
				"Ski Men": {
					{
						Athlete: model.Athlete{ID: "ath-2", Name: "Leo Martin"},
						Place:   intPtr(5),
						Results: []model.EventResult{
							{
								EventName: "FWT Pro Verbier 2025",
								Place:     intPtr(3),
								Date:      "2025-01-25",
							},
						},
					},
				},
			},
		},
	}
}

func SampleCommentatorInfo() map[string][]model.CommentatorInfo {
	return map[string][]model.CommentatorInfo{
		"ath-1": {
			{
				AthleteID: "ath-1",
				Homebase:  "Verbier",
				Team:      "Faction",
				Facts:     "Won the 2024 junior title",
			},
		},
	}
}
