package workflow

import (
	"testing"
	"time"
)

func TestBackoffForAttempt_GrowthAndCap(t *testing.T) {
	initial := 10 * time.Second

	cases := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{4, 80 * time.Second},
		{7, 10 * time.Minute},
		{20, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := BackoffForAttempt(initial, tc.attempt); got != tc.expected {
			t.Fatalf("attempt %d: expected %s, got %s", tc.attempt, tc.expected, got)
		}
	}
}

func TestAllowSend_BudgetWithinWindow(t *testing.T) {
	d := &MailDispatcher{RateLimit: 2, RateWindow: time.Minute}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if !d.allowSend(now) {
		t.Fatal("first send should be allowed")
	}
	d.sentInWindow++
	if !d.allowSend(now.Add(time.Second)) {
		t.Fatal("second send should be allowed")
	}
	d.sentInWindow++
	if d.allowSend(now.Add(2 * time.Second)) {
		t.Fatal("third send should exceed the budget")
	}

	// Budget resets once the window rolls over.
	if !d.allowSend(now.Add(61 * time.Second)) {
		t.Fatal("send should be allowed in the next window")
	}
	if d.sentInWindow != 0 {
		t.Fatalf("window rollover should reset the counter, got %d", d.sentInWindow)
	}
}

func TestAllowSend_ZeroLimitMeansUnlimited(t *testing.T) {
	d := &MailDispatcher{RateLimit: 0, RateWindow: time.Minute}
	now := time.Now().UTC()
	for i := 0; i < 100; i++ {
		if !d.allowSend(now) {
			t.Fatal("zero limit should never block")
		}
	}
}
