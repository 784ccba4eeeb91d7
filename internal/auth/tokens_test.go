package auth

import (
	"errors"
	"testing"
	"time"
)

func TestNewTokenServiceShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	token, err := s.Issue("dev", "sess-1", exp)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := s.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "dev" || claims.SessionID != "sess-1" || !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenExpired(t *testing.T) {
	s, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return issuedAt }

	token, err := s.Issue("dev", "sess-1", issuedAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	s.Now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	if _, err := s.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestTokenTampered(t *testing.T) {
	s, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	token, err := s.Issue("dev", "sess-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := s.Parse(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}
