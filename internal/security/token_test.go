package security

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("secret", "acct-1", "dev-a", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID != "acct-1" {
		t.Errorf("account id = %s, want acct-1", claims.AccountID)
	}
	if claims.DeviceID != "dev-a" {
		t.Errorf("device id = %s, want dev-a", claims.DeviceID)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("secret", "acct-1", "dev-a", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseAccessToken(token, "other-secret"); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken("secret", "acct-1", "dev-a", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseAccessToken(token, "secret"); err == nil {
		t.Fatal("expected parse failure for expired token")
	}
}

func TestNewCapabilityToken(t *testing.T) {
	first, err := NewCapabilityToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := NewCapabilityToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if first == "" || first == second {
		t.Fatal("capability tokens must be non-empty and unique")
	}

	// Zero falls back to the default length.
	fallback, err := NewCapabilityToken(0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(fallback) != len(first) {
		t.Fatalf("default length mismatch: %d vs %d", len(fallback), len(first))
	}
}
