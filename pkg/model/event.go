package model

import "time"

type EventInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	// Date is the event start date as delivered by the API (RFC 3339 or
	// plain yyyy-mm-dd). Parsed lazily, invalid values yield a zero time.
	Date   string `json:"date,omitempty"`
	Status string `json:"status,omitempty"`
}

func (e *EventInfo) StartTime() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, e.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
