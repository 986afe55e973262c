// Package store defines the persistence contract the auth service depends
// on, plus the swappable backends that satisfy it. The service never sees a
// concrete driver.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/authsvc/app/entity"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserUpdate is a partial update: only non-nil fields are applied.
type UserUpdate struct {
	Name            *string
	Phone           *string
	Bio             *string
	AvatarURL       *string
	PasswordHash    *string
	Role            *string
	IsEmailVerified *bool
	IsActive        *bool
	LastLoginAt     *time.Time
}

// ListFilter narrows and pages List results. Zero values mean "no filter";
// a PerPage of 0 falls back to 50.
type ListFilter struct {
	Role     string
	IsActive *bool
	Page     int
	PerPage  int
}

func (f ListFilter) limits() (offset, limit int) {
	limit = f.PerPage
	if limit <= 0 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * limit, limit
}

// UserStore is the seam across which relational, document and in-memory
// backends are swapped. FindByEmail is case-insensitive. Create must
// return ErrDuplicateEmail for an email collision. RemoveRefreshToken
// reports whether the token was actually present, atomically per backend;
// the refresh rotation relies on that for its revocation check.
type UserStore interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, id string, update UserUpdate) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*entity.User, int, error)
	AddRefreshToken(ctx context.Context, id, token string) error
	RemoveRefreshToken(ctx context.Context, id, token string) (bool, error)
	RemoveAllRefreshTokens(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	HealthCheck(ctx context.Context) error
}

// NormalizeEmail lowercases and trims an address; every backend applies it
// before storing or matching so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
