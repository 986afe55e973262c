package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/authsvc/app/dto"
	"github.com/vibast-solutions/authsvc/app/middleware"
	"github.com/vibast-solutions/authsvc/app/service"
)

type UserController struct {
	auth *service.AuthService
}

func NewUserController(auth *service.AuthService) *UserController {
	return &UserController{auth: auth}
}

func (ctl *UserController) GetProfile(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextUserID).(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized"))
	}

	user, err := ctl.auth.GetProfile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, dto.Fail("user not found"))
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Get profile failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	return c.JSON(http.StatusOK, dto.OK("profile", user))
}

func (ctl *UserController) UpdateProfile(c echo.Context) error {
	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind update-profile request")
		return c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
	}
	if errs := req.Validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, dto.Fail("validation failed", errs...))
	}

	userID, ok := c.Get(middleware.ContextUserID).(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.Fail("unauthorized"))
	}

	user, err := ctl.auth.UpdateProfile(c.Request().Context(), userID, service.ProfileUpdate{
		Name:      req.Name,
		Phone:     req.Phone,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, dto.Fail("user not found"))
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Update profile failed")
		return c.JSON(http.StatusInternalServerError, dto.Fail("internal server error"))
	}

	logrus.WithField("user_id", userID).Info("Profile updated")
	return c.JSON(http.StatusOK, dto.OK("profile updated", user))
}

// Health reports service and store status; a failing store check answers
// 503 so load balancers can rotate the instance out.
func (ctl *UserController) Health(c echo.Context) error {
	if err := ctl.auth.HealthCheck(c.Request().Context()); err != nil {
		logrus.WithError(err).Error("Health check failed")
		return c.JSON(http.StatusServiceUnavailable, dto.Fail("service unavailable"))
	}
	return c.JSON(http.StatusOK, dto.OK("healthy", dto.HealthData{Status: "ok", Database: "up"}))
}
