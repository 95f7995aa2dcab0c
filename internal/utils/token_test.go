package utils

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "token-test-secret")

	pair, err := NewTokenPair(42, "alice")
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected both access and refresh tokens")
	}

	for _, token := range []string{pair.Access, pair.Refresh} {
		claims, err := ParseToken(token)
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		if claims.Username != "alice" {
			t.Fatalf("username claim = %q, want alice", claims.Username)
		}
		id, err := UserIDFromClaims(claims)
		if err != nil {
			t.Fatalf("subject decode error: %v", err)
		}
		if id != 42 {
			t.Fatalf("user id = %d, want 42", id)
		}
	}
}

func TestParseTokenRejectsBadInput(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "token-test-secret")

	if _, err := ParseToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}

	pair, err := NewTokenPair(7, "bob")
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	t.Setenv("JWT_SECRET_KEY", "a-different-secret")
	if _, err := ParseToken(pair.Access); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}
