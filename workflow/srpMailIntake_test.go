package workflow

import "testing"

func TestIsSrpSubject(t *testing.T) {
	cases := []struct {
		subject  string
		expected bool
	}{
		{"SRP request", true},
		{"srp: lost my hound", true},
		{"[SRP] Purifier down", true},
		{"Re: SRP", true},
		{"fleet tonight?", false},
		{"my corp SRPs are great", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsSrpSubject(tc.subject); got != tc.expected {
			t.Fatalf("IsSrpSubject(%q) expected %v, got %v", tc.subject, tc.expected, got)
		}
	}
}

func TestExtractKillmailRef(t *testing.T) {
	hash := "0123456789abcdef0123456789abcdef01234567"

	body := "lost my bomber, see <a href=\"killReport:128934567:" + hash + "\">kill</a> o7"
	id, gotHash, ok := ExtractKillmailRef(body)
	if !ok {
		t.Fatal("expected killReport link to match")
	}
	if id != 128934567 || gotHash != hash {
		t.Fatalf("expected (128934567, %s), got (%d, %s)", hash, id, gotHash)
	}

	id, gotHash, ok = ExtractKillmailRef("https://zkillboard.com/kill/128934567/")
	if !ok {
		t.Fatal("expected zkillboard link to match")
	}
	if id != 128934567 || gotHash != "" {
		t.Fatalf("zkillboard link should carry no hash, got (%d, %q)", id, gotHash)
	}

	if _, _, ok := ExtractKillmailRef("no links here"); ok {
		t.Fatal("expected no match for plain text")
	}
	if _, _, ok := ExtractKillmailRef("killReport:123:tooshort"); ok {
		t.Fatal("expected short hash to be rejected")
	}
}

func TestExtractPayoutHint(t *testing.T) {
	body := "killReport link above\nPayout: 20m\nthanks"
	hint, found := ExtractPayoutHint(body)
	if !found || hint != "20m" {
		t.Fatalf("expected hint %q, got %q (found=%v)", "20m", hint, found)
	}

	if _, found := ExtractPayoutHint("no hint in this mail"); found {
		t.Fatal("expected no hint")
	}
}
