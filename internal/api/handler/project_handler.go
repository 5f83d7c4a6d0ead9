package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

// ProjectHandler handles HTTP requests for projects and their utilization.
type ProjectHandler struct {
	service ports.ProjectService
}

func NewProjectHandler(service ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// Create handles POST /api/projects.
//
// @Summary      Create a project with members and tasks
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createProjectRequest  true  "Project details"
// @Success      201   {object}  projectResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req createProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toCreateProjectInput(who.UserID, req)
	if err != nil {
		return err
	}

	p, err := h.service.CreateProject(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toProjectResponse(*p))
}

// Update handles PUT /api/projects/:id. Only the creator or an admin may
// edit a project.
//
// @Summary      Update project attributes
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Project id"
// @Param        body  body      updateProjectRequest  true  "Project attributes"
// @Success      200   {object}  projectResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/projects/{id} [put]
func (h *ProjectHandler) Update(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req updateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toUpdateProjectInput(c.Param("id"), req)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.authorizeOwner(c, who, in.ProjectID); err != nil {
		return err
	}

	p, err := h.service.UpdateProject(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(*p))
}

// AddMembers handles POST /api/projects/:id/members.
//
// @Summary      Add members to a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Project id"
// @Param        body  body      addMembersRequest  true  "Members to add"
// @Success      200   {object}  projectResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/projects/{id}/members [post]
func (h *ProjectHandler) AddMembers(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req addMembersRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	projectID := c.Param("id")
	if err := h.authorizeOwner(c, who, projectID); err != nil {
		return err
	}

	p, err := h.service.AddMembers(c.Request().Context(), projectID, toMemberInputs(req.Members))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(*p))
}

// RemoveMember handles DELETE /api/projects/:id/members/:userId.
//
// @Summary      Remove a member from a project
// @Description  The member row is flagged as removed. Hours already logged are kept.
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Project id"
// @Param        userId  path      string  true  "Member user id"
// @Success      200     {object}  projectResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/projects/{id}/members/{userId} [delete]
func (h *ProjectHandler) RemoveMember(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	projectID := c.Param("id")
	if err := h.authorizeOwner(c, who, projectID); err != nil {
		return err
	}

	p, err := h.service.RemoveMember(c.Request().Context(), projectID, c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(*p))
}

// AddTasks handles POST /api/projects/:id/tasks.
//
// @Summary      Add tasks to a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Project id"
// @Param        body  body      addTasksRequest  true  "Tasks to add"
// @Success      200   {object}  projectResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/projects/{id}/tasks [post]
func (h *ProjectHandler) AddTasks(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req addTasksRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tasks, err := toTaskInputs(req.Tasks)
	if err != nil {
		return err
	}
	projectID := c.Param("id")
	if err := h.authorizeOwner(c, who, projectID); err != nil {
		return err
	}

	p, err := h.service.AddTasks(c.Request().Context(), projectID, tasks)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(*p))
}

// RemoveTask handles DELETE /api/projects/:id/tasks/:taskId.
//
// @Summary      Remove a task from a project
// @Description  The task is flagged as removed. Hours already logged are kept.
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Project id"
// @Param        taskId  path      string  true  "Task id"
// @Success      200     {object}  projectResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/projects/{id}/tasks/{taskId} [delete]
func (h *ProjectHandler) RemoveTask(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	projectID := c.Param("id")
	if err := h.authorizeOwner(c, who, projectID); err != nil {
		return err
	}

	p, err := h.service.RemoveTask(c.Request().Context(), projectID, c.Param("taskId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(*p))
}

// authorizeOwner lets only the project creator or an admin change a project.
func (h *ProjectHandler) authorizeOwner(c echo.Context, who caller, projectID string) error {
	current, err := h.service.GetProject(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	if current.CreatedBy != who.UserID && who.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}

// Get handles GET /api/projects/:id.
//
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project id"
// @Success      200  {object}  projectResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	if _, err := callerFrom(c); err != nil {
		return err
	}
	p, err := h.service.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(*p))
}

// List handles GET /api/projects.
//
// @Summary      Projects created by or assigned to the caller
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  projectResponse
// @Router       /api/projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	projects, err := h.service.ListProjects(c.Request().Context(), who.UserID)
	if err != nil {
		return err
	}
	resp := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

// Utilization handles GET /api/projects/:id/utilization.
//
// @Summary      Logged hours against the project budget
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string  true   "Project id"
// @Param        startDate  query     string  false  "First day (YYYY-MM-DD), defaults to the project start"
// @Param        endDate    query     string  false  "Last day (YYYY-MM-DD), defaults to the project end"
// @Success      200        {object}  utilizationResponse
// @Failure      400        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/projects/{id}/utilization [get]
func (h *ProjectHandler) Utilization(c echo.Context) error {
	if _, err := callerFrom(c); err != nil {
		return err
	}
	var start, end time.Time
	var err error
	if raw := c.QueryParam("startDate"); raw != "" {
		if start, err = parseDate("startDate", raw); err != nil {
			return err
		}
	}
	if raw := c.QueryParam("endDate"); raw != "" {
		if end, err = parseDate("endDate", raw); err != nil {
			return err
		}
	}

	u, err := h.service.GetProjectUtilization(c.Request().Context(), c.Param("id"), start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUtilizationResponse(u))
}
