package model

type AthleteStatus string

const (
	StatusConfirmed  AthleteStatus = "confirmed"
	StatusWaitlisted AthleteStatus = "waitlisted"
)

type Athlete struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Bib         string        `json:"bib,omitempty"`
	Nationality string        `json:"nationality"`
	Division    string        `json:"division"`
	Status      AthleteStatus `json:"status"`
	// EventSource is set when rosters of several events are merged.
	// Presence of this field replaces the loose single/multi event union
	// of the upstream API.
	EventSource string `json:"eventSource,omitempty"`
}

// FromMergedRoster reports whether this athlete entry originates from a
// merged multi event roster.
func (a *Athlete) FromMergedRoster() bool {
	return a.EventSource != ""
}
