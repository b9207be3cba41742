package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer("test-secret", time.Hour, fixedNow(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, expiresAt, err := issuer.Issue("emp-1", KindEmployee, "company-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %s", expiresAt)
	}

	claims, err := issuer.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "emp-1" || claims.Kind != KindEmployee || claims.CompanyID != "company-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.IssuedAt.Time.Equal(now) {
		t.Fatalf("unexpected iat: %s", claims.IssuedAt.Time)
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer("test-secret", time.Hour, fixedNow(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other, err := NewIssuer("other-secret", time.Hour, fixedNow(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foreign, _, err := other.Issue("company-1", KindCompany, "company-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	past, err := NewIssuer("test-secret", time.Hour, fixedNow(now.Add(-2*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expired, _, err := past.Issue("company-1", KindCompany, "company-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Kind:             KindCompany,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "company-1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unknownKind, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Kind:             Kind("admin"),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "company-1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]string{
		"malformed":    "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"alg none":     none,
		"unknown kind": unknownKind,
	}

	for name, raw := range tests {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := issuer.Parse(raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewIssuerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer("", time.Hour, nil); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := NewIssuer("secret", 0, nil); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
