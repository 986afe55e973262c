package dto

import "strings"

// FieldError is one entry of the response envelope's errors array.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func (r *RegisterRequest) Validate() []FieldError {
	var errs []FieldError
	errs = appendEmailErrors(errs, r.Email)
	if strings.TrimSpace(r.Password) == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() []FieldError {
	var errs []FieldError
	errs = appendEmailErrors(errs, r.Email)
	if strings.TrimSpace(r.Password) == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshRequest) Validate() []FieldError {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return []FieldError{{Field: "refresh_token", Message: "refresh_token is required"}}
	}
	return nil
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *LogoutRequest) Validate() []FieldError {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return []FieldError{{Field: "refresh_token", Message: "refresh_token is required"}}
	}
	return nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgotPasswordRequest) Validate() []FieldError {
	return appendEmailErrors(nil, r.Email)
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *ResetPasswordRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.Token) == "" {
		errs = append(errs, FieldError{Field: "token", Message: "token is required"})
	}
	if strings.TrimSpace(r.Password) == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	} else if r.Password != r.ConfirmPassword {
		errs = append(errs, FieldError{Field: "confirm_password", Message: "passwords do not match"})
	}
	return errs
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

func (r *VerifyEmailRequest) Validate() []FieldError {
	if strings.TrimSpace(r.Token) == "" {
		return []FieldError{{Field: "token", Message: "token is required"}}
	}
	return nil
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

func (r *ResendVerificationRequest) Validate() []FieldError {
	return appendEmailErrors(nil, r.Email)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r *ChangePasswordRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.CurrentPassword) == "" {
		errs = append(errs, FieldError{Field: "current_password", Message: "current_password is required"})
	}
	if strings.TrimSpace(r.NewPassword) == "" {
		errs = append(errs, FieldError{Field: "new_password", Message: "new_password is required"})
	}
	return errs
}

// UpdateProfileRequest uses pointers so absent fields stay untouched.
type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

func (r *UpdateProfileRequest) Validate() []FieldError {
	if r.Name == nil && r.Phone == nil && r.Bio == nil && r.AvatarURL == nil {
		return []FieldError{{Field: "body", Message: "at least one updatable field is required"}}
	}
	return nil
}

func appendEmailErrors(errs []FieldError, email string) []FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if !strings.Contains(email[1:], "@") {
		return append(errs, FieldError{Field: "email", Message: "email is invalid"})
	}
	return errs
}
