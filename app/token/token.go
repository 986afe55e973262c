package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Type tags the purpose of a token inside its signed envelope. A verifier
// only accepts its own class, so a reset token can never pass as a
// verification token even though both share a signing secret.
type Type string

const (
	TypeAccess            Type = "access"
	TypeRefresh           Type = "refresh"
	TypeEmailVerification Type = "email_verification"
	TypePasswordReset     Type = "password_reset"
)

type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType Type   `json:"token_type"`
	jwt.RegisteredClaims
}

// Options configures an Issuer. Refresh tokens are signed with their own
// secret so a leaked access secret cannot mint refresh tokens and vice
// versa; the verification and reset classes ride on the access secret.
type Options struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

type Issuer struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessTTL       time.Duration
	refreshTTL      time.Duration
	verificationTTL time.Duration
	resetTTL        time.Duration
}

func NewIssuer(opts Options) (*Issuer, error) {
	if opts.AccessSecret == "" || opts.RefreshSecret == "" {
		return nil, errors.New("token: access and refresh secrets are required")
	}

	iss := &Issuer{
		accessSecret:    []byte(opts.AccessSecret),
		refreshSecret:   []byte(opts.RefreshSecret),
		accessTTL:       opts.AccessTTL,
		refreshTTL:      opts.RefreshTTL,
		verificationTTL: opts.VerificationTTL,
		resetTTL:        opts.ResetTTL,
	}
	if iss.accessTTL <= 0 {
		iss.accessTTL = 15 * time.Minute
	}
	if iss.refreshTTL <= 0 {
		iss.refreshTTL = 7 * 24 * time.Hour
	}
	if iss.verificationTTL <= 0 {
		iss.verificationTTL = 24 * time.Hour
	}
	if iss.resetTTL <= 0 {
		iss.resetTTL = time.Hour
	}
	return iss, nil
}

// IssueAccessToken embeds email and role so downstream authorization does
// not need a database round trip.
func (i *Issuer) IssueAccessToken(userID, email, role string) (string, error) {
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: TypeAccess,
	}
	return i.sign(claims, i.accessTTL, i.accessSecret)
}

func (i *Issuer) IssueRefreshToken(userID string) (string, error) {
	claims := &Claims{
		UserID:    userID,
		TokenType: TypeRefresh,
	}
	return i.sign(claims, i.refreshTTL, i.refreshSecret)
}

func (i *Issuer) IssueEmailVerificationToken(userID string) (string, error) {
	claims := &Claims{
		UserID:    userID,
		TokenType: TypeEmailVerification,
	}
	return i.sign(claims, i.verificationTTL, i.accessSecret)
}

func (i *Issuer) IssuePasswordResetToken(userID string) (string, error) {
	claims := &Claims{
		UserID:    userID,
		TokenType: TypePasswordReset,
	}
	return i.sign(claims, i.resetTTL, i.accessSecret)
}

func (i *Issuer) VerifyAccessToken(tokenString string) (*Claims, error) {
	return i.verify(tokenString, TypeAccess, i.accessSecret)
}

func (i *Issuer) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return i.verify(tokenString, TypeRefresh, i.refreshSecret)
}

func (i *Issuer) VerifyEmailVerificationToken(tokenString string) (*Claims, error) {
	return i.verify(tokenString, TypeEmailVerification, i.accessSecret)
}

func (i *Issuer) VerifyPasswordResetToken(tokenString string) (*Claims, error) {
	return i.verify(tokenString, TypePasswordReset, i.accessSecret)
}

func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

func (i *Issuer) sign(claims *Claims, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func (i *Issuer) verify(tokenString string, expected Type, secret []byte) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expected {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
