package utils

import (
	"errors"
	"testing"
	"time"
)

func TestJWTGenerateAndParse(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, exp, err := m.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry should be in the future")
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("UserID = %q, want user-123", claims.UserID)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("Subject = %q, want user-123", claims.Subject)
	}
}

func TestJWTParseExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)

	token, _, err := m.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	_, err = m.Parse(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTParseTampered(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, _, err := m.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.Parse(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestJWTParseWrongSecret(t *testing.T) {
	token, _, err := NewJWTManager("secret-a", time.Hour).Generate("user-123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewJWTManager("secret-b", time.Hour).Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}
