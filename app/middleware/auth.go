package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/authsvc/app/dto"
	"github.com/vibast-solutions/authsvc/app/entity"
	"github.com/vibast-solutions/authsvc/app/token"
)

// Context keys the auth middleware attaches claims under.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

type accessTokenVerifier interface {
	VerifyAccessToken(tokenString string) (*token.Claims, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

// AuthMiddleware gates requests on a valid access token and, for the
// liveness checks, on the user's current store state. Token claims alone
// are not trusted for is_active/is_email_verified because a token stays
// valid after an account is deactivated mid-session.
type AuthMiddleware struct {
	verifier accessTokenVerifier
	users    userLookup
}

func NewAuthMiddleware(verifier accessTokenVerifier, users userLookup) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, failure := m.claimsFromRequest(c)
		if failure != "" {
			logrus.Debug(failure)
			return c.JSON(http.StatusUnauthorized, dto.Fail(failure))
		}

		attachClaims(c, claims)
		return next(c)
	}
}

// OptionalAuth attaches claims when a valid bearer token is present and
// proceeds silently otherwise. Used for endpoints with optional
// personalization.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims, failure := m.claimsFromRequest(c); failure == "" {
			attachClaims(c, claims)
		}
		return next(c)
	}
}

// RequireRoles rejects unless the authenticated role is in the allowed set.
// Must run after RequireAuth.
func (m *AuthMiddleware) RequireRoles(allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextUserRole).(string)
			if !ok {
				return c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized"))
			}
			for _, r := range allowed {
				if role == r {
					return next(c)
				}
			}
			logrus.WithField("role", role).Debug("role not permitted")
			return c.JSON(http.StatusForbidden, dto.Fail("insufficient permissions"))
		}
	}
}

// RequireOwner permits the request when the authenticated user id matches
// the named path parameter, or the caller is an admin.
func (m *AuthMiddleware) RequireOwner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(ContextUserID).(string)
			if !ok {
				return c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized"))
			}
			role, _ := c.Get(ContextUserRole).(string)
			if role == entity.RoleAdmin || c.Param(param) == userID {
				return next(c)
			}
			return c.JSON(http.StatusForbidden, dto.Fail("insufficient permissions"))
		}
	}
}

// RequireActive checks the account's current active flag in the store.
func (m *AuthMiddleware) RequireActive(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, resp := m.currentUser(c)
		if user == nil {
			return resp
		}
		if !user.IsActive {
			return c.JSON(http.StatusForbidden, dto.Fail("account deactivated"))
		}
		return next(c)
	}
}

// RequireVerifiedEmail checks the account's current verified flag in the
// store.
func (m *AuthMiddleware) RequireVerifiedEmail(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, resp := m.currentUser(c)
		if user == nil {
			return resp
		}
		if !user.IsEmailVerified {
			return c.JSON(http.StatusForbidden, dto.Fail("please verify your email"))
		}
		return next(c)
	}
}

func (m *AuthMiddleware) claimsFromRequest(c echo.Context) (*token.Claims, string) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, "missing authorization header"
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, "invalid authorization header format"
	}

	claims, err := m.verifier.VerifyAccessToken(parts[1])
	if err != nil {
		return nil, "invalid or expired token"
	}
	return claims, ""
}

func (m *AuthMiddleware) currentUser(c echo.Context) (*entity.User, error) {
	userID, ok := c.Get(ContextUserID).(string)
	if !ok {
		return nil, c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized"))
	}

	user, err := m.users.FindByID(c.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Debug("account lookup failed")
		return nil, c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized"))
	}
	return user, nil
}

func attachClaims(c echo.Context, claims *token.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserEmail, claims.Email)
	c.Set(ContextUserRole, claims.Role)
}
