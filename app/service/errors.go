package service

import "errors"

var (
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials deliberately covers both unknown email and wrong
	// password so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountDeactivated  = errors.New("account deactivated")
	ErrEmailNotVerified    = errors.New("please verify your email")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyVerified     = errors.New("email is already verified")
	ErrPasswordMismatch    = errors.New("current password is incorrect")
	ErrWeakPassword        = errors.New("password does not meet policy requirements")
)
