package dto

import (
	"github.com/vibast-solutions/authsvc/app/entity"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func OK(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

func Fail(message string, errs ...FieldError) Response {
	return Response{Success: false, Message: message, Errors: errs}
}

// AuthData is the payload of register/login/refresh responses.
type AuthData struct {
	User         *entity.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
}

type HealthData struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
