package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/authsvc/app/dto"
	"github.com/vibast-solutions/authsvc/app/middleware"
	"github.com/vibast-solutions/authsvc/app/service"
	"github.com/vibast-solutions/authsvc/app/token"
)

type AuthController struct {
	auth *service.AuthService
}

func NewAuthController(auth *service.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (ctl *AuthController) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	result, err := ctl.auth.Register(c.Request().Context(), req.Email, req.Password, service.Profile{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			logrus.WithField("email", req.Email).Warn("Register failed: email taken")
			return c.JSON(http.StatusConflict, dto.Fail("email already registered"))
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return c.JSON(http.StatusBadRequest, dto.Fail(err.Error()))
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	logrus.WithFields(logrus.Fields{
		"user_id": result.User.ID,
		"email":   result.User.Email,
	}).Info("User registered")

	return c.JSON(http.StatusCreated, dto.OK("registration successful", authData(result)))
}

func (ctl *AuthController) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	result, err := ctl.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials),
			errors.Is(err, service.ErrAccountDeactivated),
			errors.Is(err, service.ErrEmailNotVerified):
			logrus.WithField("email", req.Email).Warn("Login rejected")
			return c.JSON(http.StatusUnauthorized, dto.Fail(err.Error()))
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	logrus.WithField("email", req.Email).Info("Login successful")
	return c.JSON(http.StatusOK, dto.OK("login successful", authData(result)))
}

func (ctl *AuthController) Refresh(c echo.Context) error {
	var req dto.RefreshRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind refresh request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	result, err := ctl.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrInvalidToken),
			errors.Is(err, token.ErrTokenExpired),
			errors.Is(err, service.ErrInvalidRefreshToken),
			errors.Is(err, service.ErrAccountDeactivated):
			logrus.Warn("Refresh failed: invalid or revoked token")
			return c.JSON(http.StatusUnauthorized, dto.Fail("invalid refresh token"))
		}
		logrus.WithError(err).Error("Refresh failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	logrus.WithField("user_id", result.User.ID).Info("Refresh successful")
	return c.JSON(http.StatusOK, dto.OK("token refreshed", authData(result)))
}

func (ctl *AuthController) Logout(c echo.Context) error {
	var req dto.LogoutRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind logout request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	userID, ok := c.Get(middleware.ContextUserID).(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized"))
	}

	if err := ctl.auth.Logout(c.Request().Context(), userID, req.RefreshToken); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, dto.Fail("user not found"))
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Logout failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	logrus.WithField("user_id", userID).Info("Logout successful")
	return c.JSON(http.StatusOK, dto.OK("logged out successfully", nil))
}

func (ctl *AuthController) LogoutAll(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextUserID).(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized"))
	}

	if err := ctl.auth.LogoutAll(c.Request().Context(), userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, dto.Fail("user not found"))
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Logout-all failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	logrus.WithField("user_id", userID).Info("All sessions revoked")
	return c.JSON(http.StatusOK, dto.OK("logged out from all devices", nil))
}

// ForgotPassword answers the same 200 whether or not the account exists.
func (ctl *AuthController) ForgotPassword(c echo.Context) error {
	var req dto.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot-password request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	ctl.auth.ForgotPassword(c.Request().Context(), req.Email)

	return c.JSON(http.StatusOK, dto.OK("if the email exists, a reset link has been sent", nil))
}

func (ctl *AuthController) ResetPassword(c echo.Context) error {
	var req dto.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind reset-password request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	err := ctl.auth.ResetPassword(c.Request().Context(), req.Token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrInvalidToken):
			return c.JSON(http.StatusBadRequest, dto.Fail("invalid token"))
		case errors.Is(err, token.ErrTokenExpired):
			return c.JSON(http.StatusBadRequest, dto.Fail("token has expired"))
		case errors.Is(err, service.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, dto.Fail("user not found"))
		case errors.Is(err, service.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, dto.Fail(err.Error()))
		}
		logrus.WithError(err).Error("Reset password failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	logrus.Info("Password reset successful")
	return c.JSON(http.StatusOK, dto.OK("password reset successfully", nil))
}

func (ctl *AuthController) VerifyEmail(c echo.Context) error {
	var req dto.VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind verify-email request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	user, err := ctl.auth.VerifyEmail(c.Request().Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrInvalidToken):
			return c.JSON(http.StatusBadRequest, dto.Fail("invalid token"))
		case errors.Is(err, token.ErrTokenExpired):
			return c.JSON(http.StatusBadRequest, dto.Fail("token has expired"))
		case errors.Is(err, service.ErrAlreadyVerified):
			return c.JSON(http.StatusBadRequest, dto.Fail("email is already verified"))
		case errors.Is(err, service.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, dto.Fail("user not found"))
		}
		logrus.WithError(err).Error("Verify email failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	logrus.WithField("user_id", user.ID).Info("Email verified")
	return c.JSON(http.StatusOK, dto.OK("email verified successfully", user))
}

func (ctl *AuthController) ResendVerification(c echo.Context) error {
	var req dto.ResendVerificationRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind resend-verification request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	if err := ctl.auth.ResendVerificationEmail(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrAlreadyVerified) {
			return c.JSON(http.StatusBadRequest, dto.Fail("email is already verified"))
		}
		logrus.WithError(err).Error("Resend verification failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	return c.JSON(http.StatusOK, dto.OK("if the email exists, a verification link has been sent", nil))
}

func (ctl *AuthController) ChangePassword(c echo.Context) error {
	var req dto.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind change-password request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	userID, ok := c.Get(middleware.ContextUserID).(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized"))
	}

	err := ctl.auth.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, dto.Fail("user not found"))
		case errors.Is(err, service.ErrPasswordMismatch):
			logrus.WithField("user_id", userID).Warn("Change password failed: current password mismatch")
			return c.JSON(http.StatusUnauthorized, dto.Fail("current password is incorrect"))
		case errors.Is(err, service.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, dto.Fail(err.Error()))
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Change password failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	logrus.WithField("user_id", userID).Info("Password changed")
	return c.JSON(http.StatusOK, dto.OK("password changed successfully", nil))
}

func authData(result *service.AuthResult) dto.AuthData {
	return dto.AuthData{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		ExpiresIn:    result.Tokens.ExpiresIn,
	}
}
