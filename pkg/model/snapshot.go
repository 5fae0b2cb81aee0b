package model

import (
	"fmt"
	"strings"
	"time"
)

// OfflineEventSnapshot is a saved copy of one or more events' athlete,
// ranking and annotation data. Snapshots are only replaced as a whole,
// never patched.
type OfflineEventSnapshot struct {
	ID              string                       `json:"id"`
	Events          []EventInfo                  `json:"events"`
	Athletes        []Athlete                    `json:"athletes"`
	SeriesRankings  []SeriesData                 `json:"seriesRankings,omitempty"`
	CommentatorInfo map[string][]CommentatorInfo `json:"commentatorInfo,omitempty"`
	// epoch millis, mirroring the wire format of the dashboard clients
	Timestamp int64 `json:"timestamp"`
	ExpiresAt int64 `json:"expiresAt"`
}

// SnapshotKey computes the store key for a set of event ids.
// A single event keeps its id, combined events use the multi_ prefix.
func SnapshotKey(eventIDs []string) string {
	if len(eventIDs) == 1 {
		return eventIDs[0]
	}
	return fmt.Sprintf("multi_%s", strings.Join(eventIDs, "_"))
}

// SnapshotStatus describes availability of a snapshot without carrying
// its payload.
type SnapshotStatus struct {
	ID            string `json:"id"`
	IsAvailable   bool   `json:"isAvailable"`
	IsStale       bool   `json:"isStale"`
	TotalAthletes int    `json:"totalAthletes"`
	EstimatedSize int64  `json:"estimatedSize"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	ExpiresAt     int64  `json:"expiresAt,omitempty"`
}

// Stale reports whether the snapshot passed its expiry. Stale snapshots
// remain readable, they are only eligible for the cleanup sweep.
func (s *OfflineEventSnapshot) Stale(now time.Time) bool {
	return now.UnixMilli() > s.ExpiresAt
}
