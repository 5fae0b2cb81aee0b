package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// CommentatorInfo is a free text annotation commentators keep per athlete.
// At most one record per athlete.
type CommentatorInfo struct {
	ID        uuid.UUID `json:"id"`
	AthleteID string    `json:"athlete_id"`
	Homebase  string    `json:"homebase,omitempty"`
	Team      string    `json:"team,omitempty"`
	Sponsors  string    `json:"sponsors,omitempty"`
	Facts     string    `json:"facts,omitempty"`
	Injuries  string    `json:"injuries,omitempty"`
	Instagram string    `json:"instagram,omitempty"`
	Youtube   string    `json:"youtube,omitempty"`
	Website   string    `json:"website,omitempty"`
	UpdatedBy uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
