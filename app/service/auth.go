package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/authsvc/app/entity"
	"github.com/vibast-solutions/authsvc/app/password"
	"github.com/vibast-solutions/authsvc/app/store"
	"github.com/vibast-solutions/authsvc/app/token"
	"github.com/vibast-solutions/authsvc/config"
)

// Hooks are optional callbacks fired after the corresponding flow commits.
// A nil hook is skipped; hook panics or slowness are the integrator's
// problem, so they run on the async runner.
type Hooks struct {
	OnRegister      func(*entity.User)
	OnLogin         func(*entity.User)
	OnLogout        func(*entity.User)
	OnPasswordReset func(*entity.User)
	OnEmailVerified func(*entity.User)
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthResult struct {
	User   *entity.User
	Tokens TokenPair
}

type Profile struct {
	Name  string
	Phone string
}

// ProfileUpdate carries the only fields mutable through the profile path.
// Role, email, password and the verification/active flags are never
// settable here.
type ProfileUpdate struct {
	Name      *string
	Phone     *string
	Bio       *string
	AvatarURL *string
}

type AsyncRunner func(task func())

type Option func(*AuthService)

// AuthService orchestrates the credential lifecycle over an injected store,
// hasher, token issuer and mailer. It holds no global state.
type AuthService struct {
	store       store.UserStore
	hasher      *password.Hasher
	issuer      *token.Issuer
	mailer      Mailer
	cfg         *config.Config
	hooks       Hooks
	asyncRunner AsyncRunner
}

func New(
	userStore store.UserStore,
	hasher *password.Hasher,
	issuer *token.Issuer,
	mailer Mailer,
	cfg *config.Config,
	opts ...Option,
) *AuthService {
	svc := &AuthService{
		store:  userStore,
		hasher: hasher,
		issuer: issuer,
		mailer: mailer,
		cfg:    cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithHooks(hooks Hooks) Option {
	return func(s *AuthService) {
		s.hooks = hooks
	}
}

func WithAsyncRunner(runner AsyncRunner) Option {
	return func(s *AuthService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func (s *AuthService) Register(ctx context.Context, email, plaintext string, profile Profile) (*AuthResult, error) {
	email = store.NormalizeEmail(email)

	_, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := s.cfg.Password.Policy.Validate(plaintext); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		ID:              uuid.New().String(),
		Email:           email,
		PasswordHash:    hash,
		Name:            profile.Name,
		Phone:           profile.Phone,
		Role:            entity.RoleUser,
		IsEmailVerified: !s.cfg.Features.EmailVerification,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.cfg.Features.EmailVerification {
		verifyToken, err := s.issuer.IssueEmailVerificationToken(user.ID)
		if err != nil {
			return nil, err
		}
		s.sendVerificationEmail(user.Email, verifyToken)
	} else {
		s.sendWelcomeEmail(user)
	}

	s.runHook(s.hooks.OnRegister, user)

	return &AuthResult{User: user.Sanitize(), Tokens: pair}, nil
}

func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}
	if s.cfg.Features.EmailVerification && !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.asyncRunner(func() {
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if updateErr := s.store.UpdateLastLogin(updateCtx, user.ID, time.Now()); updateErr != nil {
			logrus.WithError(updateErr).WithField("user_id", user.ID).Error("failed to update last_login")
		}
	})

	s.runHook(s.hooks.OnLogin, user)

	return &AuthResult{User: user.Sanitize(), Tokens: pair}, nil
}

// Logout removes exactly the presented refresh token. Removing a token that
// is not in the set is not an error.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if _, err := s.store.RemoveRefreshToken(ctx, userID, refreshToken); err != nil {
		return err
	}

	s.runHook(s.hooks.OnLogout, user)
	return nil
}

// LogoutAll clears the whole refresh-token set, ending every session.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	err := s.store.RemoveAllRefreshTokens(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Refresh rotates a refresh token: the presented token must verify
// cryptographically and still be a member of the user's persisted set. The
// membership removal is atomic per backend, so concurrent rotations of the
// same token resolve to a single winner.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	removed, err := s.store.RemoveRefreshToken(ctx, user.ID, refreshToken)
	if err != nil {
		return nil, err
	}
	if !removed {
		// Well-formed and unexpired, but revoked or already rotated.
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user.Sanitize(), Tokens: pair}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, verifyToken string) (*entity.User, error) {
	claims, err := s.issuer.VerifyEmailVerificationToken(verifyToken)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if user.IsEmailVerified {
		return nil, ErrAlreadyVerified
	}

	verified := true
	if err := s.store.Update(ctx, user.ID, store.UserUpdate{IsEmailVerified: &verified}); err != nil {
		return nil, err
	}
	user.IsEmailVerified = true

	s.sendWelcomeEmail(user)
	s.runHook(s.hooks.OnEmailVerified, user)

	return user.Sanitize(), nil
}

// ResendVerificationEmail is a silent no-op for unknown addresses so the
// endpoint cannot be used to probe which emails exist.
func (s *AuthService) ResendVerificationEmail(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		logrus.WithField("email", email).Debug("verification resend requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	verifyToken, err := s.issuer.IssueEmailVerificationToken(user.ID)
	if err != nil {
		return err
	}
	s.sendVerificationEmail(user.Email, verifyToken)
	return nil
}

// ForgotPassword always reports success. Lookup and dispatch failures are
// logged and swallowed; the caller-visible outcome is identical whether or
// not the email exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logrus.WithError(err).Error("forgot password lookup failed")
		}
		return
	}
	if !user.IsActive {
		return
	}

	resetToken, err := s.issuer.IssuePasswordResetToken(user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to issue reset token")
		return
	}

	s.sendPasswordResetEmail(user.Email, resetToken)
}

// ResetPassword sets a new password and clears every refresh token: a reset
// implies the old password may be compromised, so all devices re-login.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.issuer.VerifyPasswordResetToken(resetToken)
	if err != nil {
		return err
	}

	user, err := s.store.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}

	s.sendPasswordChangedEmail(user)
	s.runHook(s.hooks.OnPasswordReset, user)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrPasswordMismatch
	}

	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}

	s.sendPasswordChangedEmail(user)
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*entity.User, error) {
	err := s.store.Update(ctx, userID, store.UserUpdate{
		Name:      update.Name,
		Phone:     update.Phone,
		Bio:       update.Bio,
		AvatarURL: update.AvatarURL,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

// HealthCheck reports store reachability for the /health endpoint.
func (s *AuthService) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func (s *AuthService) issuePair(ctx context.Context, user *entity.User) (TokenPair, error) {
	accessToken, err := s.issuer.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.store.AddRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}

func (s *AuthService) setPassword(ctx context.Context, user *entity.User, newPassword string) error {
	if err := s.cfg.Password.Policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.store.Update(ctx, user.ID, store.UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}

	return s.store.RemoveAllRefreshTokens(ctx, user.ID)
}

func (s *AuthService) runHook(hook func(*entity.User), user *entity.User) {
	if hook == nil {
		return
	}
	snapshot := user.Sanitize()
	s.asyncRunner(func() {
		hook(snapshot)
	})
}

func (s *AuthService) sendVerificationEmail(to, verifyToken string) {
	link := s.cfg.HTTP.FrontendBaseURL + "/verify-email?token=" + verifyToken
	body := `<h1>Welcome!</h1>
		<p>Please verify your email address by clicking the link below:</p>
		<a href="` + link + `">Verify Email</a>`
	s.sendAsync(to, "Verify your email", body)
}

func (s *AuthService) sendPasswordResetEmail(to, resetToken string) {
	link := s.cfg.HTTP.FrontendBaseURL + "/reset-password?token=" + resetToken
	body := `<h1>Password Reset Request</h1>
		<p>You requested a password reset. Click the link below to set a new password:</p>
		<a href="` + link + `">Reset Password</a>
		<p>If you did not request this, please ignore this email.</p>`
	s.sendAsync(to, "Reset your password", body)
}

func (s *AuthService) sendWelcomeEmail(user *entity.User) {
	body := `<h1>Welcome aboard!</h1>
		<p>Your account is ready to use.</p>`
	s.sendAsync(user.Email, "Welcome", body)
}

func (s *AuthService) sendPasswordChangedEmail(user *entity.User) {
	body := `<h1>Password changed</h1>
		<p>Your password was just changed. All active sessions have been signed out.</p>
		<p>If this wasn't you, reset your password immediately.</p>`
	s.sendAsync(user.Email, "Your password was changed", body)
}

// sendAsync dispatches mail off the request path; a failed send is logged,
// never propagated.
func (s *AuthService) sendAsync(to, subject, body string) {
	s.asyncRunner(func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"to":      to,
				"subject": subject,
			}).Error("failed to send email")
		}
	})
}
