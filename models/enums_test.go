package models

import "testing"

func TestCanTransitionSRP(t *testing.T) {
	allowed := map[[2]SRPStatus]bool{
		{SRPStatusPending, SRPStatusApproved}:  true,
		{SRPStatusPending, SRPStatusDenied}:    true,
		{SRPStatusPending, SRPStatusCancelled}: true,
		{SRPStatusApproved, SRPStatusPaid}:     true,
	}

	all := []SRPStatus{SRPStatusPending, SRPStatusApproved, SRPStatusDenied, SRPStatusPaid, SRPStatusCancelled}
	for _, from := range all {
		for _, to := range all {
			expected := allowed[[2]SRPStatus{from, to}]
			if got := CanTransitionSRP(from, to); got != expected {
				t.Fatalf("CanTransitionSRP(%s, %s) expected %v, got %v", from, to, expected, got)
			}
		}
	}
}

func TestParseFleetStatus(t *testing.T) {
	for _, s := range []string{"scheduled", "in_progress", "completed", "cancelled"} {
		parsed, err := ParseFleetStatus(s)
		if err != nil {
			t.Fatalf("ParseFleetStatus(%q) error: %v", s, err)
		}
		if string(parsed) != s {
			t.Fatalf("ParseFleetStatus(%q) got %s", s, parsed)
		}
	}
	if _, err := ParseFleetStatus("paused"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestFleetStatusIsTerminal(t *testing.T) {
	cases := map[FleetStatus]bool{
		FleetStatusScheduled:  false,
		FleetStatusInProgress: false,
		FleetStatusCompleted:  true,
		FleetStatusCancelled:  true,
	}
	for status, expected := range cases {
		if got := status.IsTerminal(); got != expected {
			t.Fatalf("%s.IsTerminal() expected %v, got %v", status, expected, got)
		}
	}
}

func TestParseFCRank(t *testing.T) {
	for _, s := range []string{"SFC", "JFC", "FC", "Support"} {
		if _, err := ParseFCRank(s); err != nil {
			t.Fatalf("ParseFCRank(%q) error: %v", s, err)
		}
	}
	if _, err := ParseFCRank("Grand Admiral"); err == nil {
		t.Fatal("expected error for unknown rank")
	}
}

func TestParseUserRole(t *testing.T) {
	for _, s := range []string{"Admin", "FC", "Member"} {
		if _, err := ParseUserRole(s); err != nil {
			t.Fatalf("ParseUserRole(%q) error: %v", s, err)
		}
	}
	if _, err := ParseUserRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
