package utils

import "testing"

func TestParseISKAmount_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000000", "20000000"},
		{"20,000,000", "20000000"},
		{"20m", "20000000"},
		{"1.5b", "1500000000"},
		{"750k", "750000"},
		{"isk 750k", "750000"},
		{"  ISK 20,000,000  ", "20000000"},
	}
	for _, tc := range cases {
		d, err := ParseISKAmount(tc.in)
		if err != nil {
			t.Fatalf("ParseISKAmount(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseISKAmount(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestParseISKAmount_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12x", "m20"} {
		if _, err := ParseISKAmount(in); err == nil {
			t.Fatalf("ParseISKAmount(%q) expected error", in)
		}
	}
}

// A claim mail can carry any text; a negative payout hint must never
// make it into a stored amount.
func TestParseISKAmount_RejectsNegative(t *testing.T) {
	for _, in := range []string{"-1b", "-20,000,000", "isk -750k", "-0.5m"} {
		if _, err := ParseISKAmount(in); err == nil {
			t.Fatalf("ParseISKAmount(%q) expected error", in)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := SplitAndTrim(" a, b ,, c ")
	expected := []string{"a", "b", "c"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
	if SplitAndTrim("   ") != nil {
		t.Fatal("blank input should return nil")
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{1, 2, 2, 3, 1})
	if len(got) != 3 {
		t.Fatalf("expected 3 unique values, got %v", got)
	}
}
