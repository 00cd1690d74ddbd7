package workflow

import (
	"testing"
	"time"

	"github.com/bombersbar/backend/models"
)

func TestNextFleetStatus_Lifecycle(t *testing.T) {
	scheduledAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	duration := 120

	cases := []struct {
		name     string
		now      time.Time
		current  models.FleetStatus
		expected models.FleetStatus
	}{
		{"before start stays scheduled", scheduledAt.Add(-time.Hour), models.FleetStatusScheduled, models.FleetStatusScheduled},
		{"at start goes in_progress", scheduledAt, models.FleetStatusScheduled, models.FleetStatusInProgress},
		{"five minutes in goes in_progress", scheduledAt.Add(5 * time.Minute), models.FleetStatusScheduled, models.FleetStatusInProgress},
		{"just before end stays in_progress", scheduledAt.Add(119 * time.Minute), models.FleetStatusInProgress, models.FleetStatusInProgress},
		{"at end completes", scheduledAt.Add(120 * time.Minute), models.FleetStatusInProgress, models.FleetStatusCompleted},
		{"past end completes", scheduledAt.Add(125 * time.Minute), models.FleetStatusInProgress, models.FleetStatusCompleted},
		{"missed sweep jumps scheduled to completed", scheduledAt.Add(3 * time.Hour), models.FleetStatusScheduled, models.FleetStatusCompleted},
	}
	for _, tc := range cases {
		got := NextFleetStatus(tc.now, scheduledAt, duration, tc.current)
		if got != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestNextFleetStatus_TerminalNeverRegresses(t *testing.T) {
	scheduledAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		scheduledAt.Add(-time.Hour),
		scheduledAt,
		scheduledAt.Add(time.Hour),
		scheduledAt.Add(24 * time.Hour),
	}
	for _, terminal := range []models.FleetStatus{models.FleetStatusCompleted, models.FleetStatusCancelled} {
		for _, now := range times {
			if got := NextFleetStatus(now, scheduledAt, 120, terminal); got != terminal {
				t.Fatalf("terminal %s at %s changed to %s", terminal, now, got)
			}
		}
	}
}

func TestNextFleetStatus_Idempotent(t *testing.T) {
	scheduledAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := scheduledAt.Add(30 * time.Minute)

	first := NextFleetStatus(now, scheduledAt, 120, models.FleetStatusScheduled)
	second := NextFleetStatus(now, scheduledAt, 120, first)
	if first != second {
		t.Fatalf("second application changed status: %s -> %s", first, second)
	}
}
