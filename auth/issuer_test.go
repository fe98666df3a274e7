package auth

import (
	"testing"
	"time"
)

func TestJWTIssuer_IssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewJWTIssuer([]byte("test-secret"), time.Minute)

	token, err := issuer.Issue("user-1", "ws-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "user-1" || claims.Workspace != "ws-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTIssuer_VerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTIssuer([]byte("secret-a"), time.Minute)
	token, _ := issuer.Issue("user-1", "ws-1")

	other := NewJWTIssuer([]byte("secret-b"), time.Minute)
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification to fail under a different secret")
	}
}

func TestJWTIssuer_VerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewJWTIssuer([]byte("test-secret"), -time.Minute)
	token, err := issuer.Issue("user-1", "ws-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected verification to fail for an expired token")
	}
}

func TestJWTIssuer_VerifyRejectsMalformedToken(t *testing.T) {
	issuer := NewJWTIssuer([]byte("test-secret"), time.Minute)
	if _, err := issuer.Verify("not-a-jwt"); err == nil {
		t.Fatal("expected verification to fail for a malformed token")
	}
}
