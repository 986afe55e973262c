package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/authsvc/app/token"
)

func newIssuer(t *testing.T) *token.Issuer {
	t.Helper()

	iss, err := token.NewIssuer(token.Options{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	if err != nil {
		t.Fatalf("failed to construct issuer: %v", err)
	}
	return iss
}

func TestNewIssuer_RequiresSecrets(t *testing.T) {
	if _, err := token.NewIssuer(token.Options{AccessSecret: "only-access"}); err == nil {
		t.Fatalf("expected error when refresh secret is missing")
	}
	if _, err := token.NewIssuer(token.Options{RefreshSecret: "only-refresh"}); err == nil {
		t.Fatalf("expected error when access secret is missing")
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	iss := newIssuer(t)

	signed, err := iss.IssueAccessToken("user-1", "user@example.com", "admin")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := iss.VerifyAccessToken(signed)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "user@example.com" || claims.Role != "admin" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.TokenType != token.TypeAccess {
		t.Fatalf("expected access type, got %q", claims.TokenType)
	}
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	iss := newIssuer(t)

	signed, err := iss.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := iss.VerifyRefreshToken(signed)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.TokenType != token.TypeRefresh {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestVerify_CrossClassRejection(t *testing.T) {
	iss := newIssuer(t)

	reset, err := iss.IssuePasswordResetToken("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	verification, err := iss.IssueEmailVerificationToken("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	refresh, err := iss.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// A reset token must never validate as a verification token even
	// though both are signed with the access secret.
	if _, err := iss.VerifyEmailVerificationToken(reset); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := iss.VerifyPasswordResetToken(verification); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := iss.VerifyEmailVerificationToken(refresh); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := iss.VerifyAccessToken(refresh); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_SeparateSecretsPerClass(t *testing.T) {
	iss := newIssuer(t)

	other, err := token.NewIssuer(token.Options{
		AccessSecret:  "different-access",
		RefreshSecret: "different-refresh",
	})
	if err != nil {
		t.Fatalf("failed to construct issuer: %v", err)
	}

	access, err := iss.IssueAccessToken("user-1", "user@example.com", "user")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := other.VerifyAccessToken(access); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	iss, err := token.NewIssuer(token.Options{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to construct issuer: %v", err)
	}

	signed, err := iss.IssueAccessToken("user-1", "user@example.com", "user")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := iss.VerifyAccessToken(signed); !errors.Is(err, token.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	iss := newIssuer(t)

	if _, err := iss.VerifyAccessToken("not-a-jwt"); !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
