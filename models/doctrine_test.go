package models

import "testing"

func TestSlotArityMatches(t *testing.T) {
	stored := `["Covert Ops Cloaking Device II","Sisters Core Probe Launcher","Bomb Launcher I"]`

	ok, err := SlotArityMatches(stored, []string{"Covert Ops Cloaking Device II", "Prototype Cloaking Device I", "Bomb Launcher I"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("same arity with different modules should match")
	}

	ok, err = SlotArityMatches(stored, []string{"Covert Ops Cloaking Device II"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("shrinking the slot array should not match")
	}

	ok, err = SlotArityMatches(`[]`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("empty stored slots should match an empty update")
	}

	if _, err := SlotArityMatches(`not json`, nil); err == nil {
		t.Fatal("expected error for malformed stored slots")
	}
}
