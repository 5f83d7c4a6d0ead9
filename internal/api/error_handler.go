package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// domainErrors maps service sentinels to responses. An empty message means
// the wrapped error text is returned; those errors only describe caller input.
var domainErrors = []struct {
	target  error
	code    int
	message string
}{
	{domain.ErrInvalidArgument, http.StatusBadRequest, ""},
	{domain.ErrProjectNotFound, http.StatusNotFound, "project not found"},
	{domain.ErrMemberNotFound, http.StatusNotFound, ""},
	{domain.ErrTaskNotFound, http.StatusNotFound, ""},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrDuplicateTimesheet, http.StatusConflict, ""},
	{domain.ErrFrozenDate, http.StatusUnprocessableEntity, ""},
	{domain.ErrTimesheetLocked, http.StatusUnprocessableEntity, ""},
	{domain.ErrWeeklyLimitExceeded, http.StatusUnprocessableEntity, ""},
	{domain.ErrTaskNotAssigned, http.StatusUnprocessableEntity, ""},
	{domain.ErrDirectoryUnavailable, http.StatusBadGateway, "identity directory unavailable"},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Errors that
// are neither echo nor domain errors are logged and reported as a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		if code >= http.StatusInternalServerError {
			event := log.Error()
			if code == http.StatusBadGateway {
				event = log.Warn()
			}
			event.Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Int("status", code).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}

	for _, de := range domainErrors {
		if !errors.Is(err, de.target) {
			continue
		}
		if de.message == "" {
			return de.code, err.Error()
		}
		return de.code, de.message
	}
	return http.StatusInternalServerError, "internal server error"
}
