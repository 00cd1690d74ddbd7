package utils

import "testing"

func TestJwtRoundtrip(t *testing.T) {
	token, err := JwtGenerate(42, "Admin")
	if err != nil {
		t.Fatalf("JwtGenerate error: %v", err)
	}

	parsed, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate error: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("expected token to be valid")
	}
	claim, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatal("expected JwtCustomClaim")
	}
	if claim.ID != 42 || claim.Role != "Admin" {
		t.Fatalf("claim mismatch: %+v", claim)
	}
}

func TestJwtValidate_RejectsGarbage(t *testing.T) {
	if _, err := JwtValidate("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
