package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/api/middleware"
)

// caller is the authenticated user behind a request.
type caller struct {
	UserID string
	Name   string
	Role   string
}

// callerFrom reads the identity injected by the Auth middleware. A missing
// user id means the middleware did not run; reject with 401.
func callerFrom(c echo.Context) (caller, error) {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	name, _ := c.Get(middleware.ContextName).(string)
	role, _ := c.Get(middleware.ContextRole).(string)
	return caller{UserID: userID, Name: name, Role: role}, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
// Malformed payloads yield 400, rule violations 422.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
