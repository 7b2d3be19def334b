package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

var tokenUser = &domain.User{ID: "u1", Name: "A", Email: "a@x.com", Role: domain.RoleStudent}

func issuedAgo(t *testing.T, ago time.Duration) string {
	t.Helper()
	issuer := NewTokenService("secret", DefaultTokenTTL, WithClock(func() time.Time {
		return time.Now().Add(-ago)
	}))
	token, err := issuer.Issue(tokenUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", 0)

	token, err := svc.Issue(tokenUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	id, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != "u1" || id.Name != "A" || id.Role != domain.RoleStudent || id.Email != "a@x.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if got := id.ExpiresAt.Sub(id.IssuedAt); got != DefaultTokenTTL {
		t.Fatalf("expected a %v validity window, got %v", DefaultTokenTTL, got)
	}
}

func TestTokenService_Expiry(t *testing.T) {
	svc := NewTokenService("secret", DefaultTokenTTL)

	if _, err := svc.Verify(issuedAgo(t, 25*time.Hour)); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken for a 25h old token, got %v", err)
	}
	if _, err := svc.Verify(issuedAgo(t, time.Hour)); err != nil {
		t.Fatalf("expected a 1h old token to verify, got %v", err)
	}
}

func TestTokenService_Missing(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	for _, token := range []string{"", "   "} {
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrMissingToken) {
			t.Fatalf("expected ErrMissingToken for %q, got %v", token, err)
		}
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	for _, token := range []string{"not-a-token", "a.b", "a.b.c"} {
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrMalformedToken) {
			t.Fatalf("expected ErrMalformedToken for %q, got %v", token, err)
		}
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	other := NewTokenService("other-secret", time.Hour)
	token, err := other.Issue(tokenUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc := NewTokenService("secret", time.Hour)
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, err := svc.Issue(tokenUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	forged, err := NewTokenService("secret", time.Hour).Issue(&domain.User{ID: "u1", Role: domain.RoleTeacher})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if _, err := svc.Verify(tampered); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{
		"userId": "u1",
		"role":   domain.RoleStudent,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc := NewTokenService("secret", time.Hour)
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "u1",
		"role":   domain.RoleStudent,
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc := NewTokenService("secret", time.Hour)
	if _, err := svc.Verify(token); err == nil {
		t.Fatalf("expected a token without exp to be rejected")
	}
}
