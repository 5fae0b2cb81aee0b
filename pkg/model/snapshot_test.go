package model

import (
	"testing"
	"time"
)

func TestSnapshotKey(t *testing.T) {
	tests := []struct {
		name string
		arg  []string
		want string
	}{
		{name: "single event", arg: []string{"evt-1"}, want: "evt-1"},
		{name: "two events", arg: []string{"evt-1", "evt-2"}, want: "multi_evt-1_evt-2"},
		{
			name: "order is preserved",
			arg:  []string{"b", "a", "c"},
			want: "multi_b_a_c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnapshotKey(tt.arg); got != tt.want {
				t.Errorf("SnapshotKey(%v) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}

func TestSnapshotStale(t *testing.T) {
	saved := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	snap := &OfflineEventSnapshot{
		Timestamp: saved.UnixMilli(),
		ExpiresAt: saved.Add(48 * time.Hour).UnixMilli(),
	}
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "fresh", now: saved.Add(time.Hour), want: false},
		{name: "at expiry", now: saved.Add(48 * time.Hour), want: false},
		{name: "one hour past expiry", now: saved.Add(49 * time.Hour), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snap.Stale(tt.now); got != tt.want {
				t.Errorf("Stale(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestEventInfoStartTime(t *testing.T) {
	tests := []struct {
		name string
		date string
		want time.Time
	}{
		{
			name: "rfc3339",
			date: "2025-01-25T09:00:00Z",
			want: time.Date(2025, 1, 25, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "date only",
			date: "2025-01-25",
			want: time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC),
		},
		{name: "invalid", date: "soon", want: time.Time{}},
		{name: "empty", date: "", want: time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := EventInfo{Date: tt.date}
			if got := e.StartTime(); !got.Equal(tt.want) {
				t.Errorf("StartTime() = %v, want %v", got, tt.want)
			}
		})
	}
}
