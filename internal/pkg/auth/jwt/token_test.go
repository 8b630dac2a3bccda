package jwt

import (
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	payload := &Payload{
		Email:  "a@example.com",
		Name:   "Alice",
		Avatar: "https://example.com/a.png",
	}

	tokenString, err := GenerateToken(payload, testSecret, SessionExpiration)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if tokenString == "" {
		t.Fatal("expected a non-empty token string")
	}

	parsed, err := ParseToken(tokenString, testSecret)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}

	if parsed.Email != payload.Email {
		t.Errorf("expected email %q, got %q", payload.Email, parsed.Email)
	}
	if parsed.Name != payload.Name {
		t.Errorf("expected name %q, got %q", payload.Name, parsed.Name)
	}
	if parsed.Avatar != payload.Avatar {
		t.Errorf("expected avatar %q, got %q", payload.Avatar, parsed.Avatar)
	}
	if parsed.Issuer != TokenIssuer {
		t.Errorf("expected issuer %q, got %q", TokenIssuer, parsed.Issuer)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	tokenString, err := GenerateToken(&Payload{Email: "a@example.com"}, testSecret, SessionExpiration)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := ParseToken(tokenString, "another-secret"); err == nil {
		t.Error("expected an error for a token signed with a different secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	tokenString, err := GenerateToken(&Payload{Email: "a@example.com"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := ParseToken(tokenString, testSecret); err == nil {
		t.Error("expected an error for an expired token")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", testSecret); err == nil {
		t.Error("expected an error for a malformed token")
	}
}
