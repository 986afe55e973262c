package entity

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// User is the central account record. Email is stored lowercase; the
// RefreshTokens slice is the server-side revocation set checked by the
// refresh flow (set semantics, order irrelevant).
type User struct {
	ID              string     `json:"id" bson:"_id"`
	Email           string     `json:"email" bson:"email"`
	PasswordHash    string     `json:"-" bson:"password_hash"`
	Name            string     `json:"name,omitempty" bson:"name,omitempty"`
	Phone           string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Role            string     `json:"role" bson:"role"`
	IsEmailVerified bool       `json:"is_email_verified" bson:"is_email_verified"`
	IsActive        bool       `json:"is_active" bson:"is_active"`
	AvatarURL       string     `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	Bio             string     `json:"bio,omitempty" bson:"bio,omitempty"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
	RefreshTokens   []string   `json:"-" bson:"refresh_tokens"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
}

// Sanitize returns a copy safe to hand to clients: credential and session
// material is cleared even though the JSON tags already hide it.
func (u *User) Sanitize() *User {
	if u == nil {
		return nil
	}
	clean := *u
	clean.PasswordHash = ""
	clean.RefreshTokens = nil
	return &clean
}

// HasRefreshToken reports whether token is in the user's persisted set.
func (u *User) HasRefreshToken(token string) bool {
	for _, t := range u.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}
