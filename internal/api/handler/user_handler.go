package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

type usersRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,max=100,dive,required"`
}

// UserHandler exposes the identity directory.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Reportees handles GET /api/me/reportees.
//
// @Summary      The caller's direct reports
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Display name or mail prefix"
// @Success      200     {array}   domain.Profile
// @Failure      502     {object}  errorResponse
// @Router       /api/me/reportees [get]
func (h *UserHandler) Reportees(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	reportees, err := h.service.GetMyReportees(c.Request().Context(), who.UserID, c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reportees)
}

// Manager handles GET /api/me/manager. A user without manager gets 204.
//
// @Summary      The caller's manager
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Profile
// @Success      204
// @Failure      502  {object}  errorResponse
// @Router       /api/me/manager [get]
func (h *UserHandler) Manager(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	manager, err := h.service.GetManager(c.Request().Context(), who.UserID)
	if err != nil {
		return err
	}
	if manager == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, manager)
}

// Profiles handles POST /api/users.
//
// @Summary      Resolve user profiles by id
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      usersRequest  true  "User ids"
// @Success      200   {array}   domain.Profile
// @Failure      400   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/users [post]
func (h *UserHandler) Profiles(c echo.Context) error {
	if _, err := callerFrom(c); err != nil {
		return err
	}
	var req usersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(req.UserIDs) == 0 {
		return fmt.Errorf("%w: userIds must not be empty", domain.ErrInvalidArgument)
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	profiles, err := h.service.GetUsersProfile(c.Request().Context(), req.UserIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profiles)
}
