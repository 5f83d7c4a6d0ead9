package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/api/handler"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/api/metrics"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/api/middleware"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"

	_ "github.com/HunaidHanfee-MSFT/timesheet-app/docs"
)

// Dependencies are the services and probes the router wires into handlers.
type Dependencies struct {
	Timesheets ports.TimesheetService
	Projects   ports.ProjectService
	Users      ports.UserService
	// Idempotency is optional; without it duplicate requests are not replayed.
	Idempotency handler.IdempotencyStore
	Checks      map[string]handler.Check
	JWTSecret   string
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(metrics.Middleware())
	e.Use(requestLogger(deps.Logger))

	// --- Handlers ---
	timesheetHandler := handler.NewTimesheetHandler(deps.Timesheets, deps.Idempotency, deps.Logger)
	projectHandler := handler.NewProjectHandler(deps.Projects)
	userHandler := handler.NewUserHandler(deps.Users)
	healthHandler := handler.NewHealthHandler(deps.Checks)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API routes ---
	apiGroup := e.Group("/api", middleware.Auth(deps.JWTSecret))

	apiGroup.GET("/me/reportees", userHandler.Reportees)
	apiGroup.GET("/me/manager", userHandler.Manager)
	apiGroup.POST("/users", userHandler.Profiles)

	apiGroup.GET("/timesheets", timesheetHandler.List)
	apiGroup.POST("/timesheets", timesheetHandler.Save)
	apiGroup.POST("/timesheets/unfrozen-dates", timesheetHandler.UnfrozenDates)
	apiGroup.POST("/timesheets/duplicate", timesheetHandler.Duplicate)

	apiGroup.GET("/reportees/timesheets", timesheetHandler.ListReportees)
	apiGroup.POST("/reportees/timesheets/approve", timesheetHandler.Approve)
	apiGroup.POST("/reportees/timesheets/reject", timesheetHandler.Reject)

	canManage := middleware.RequireRole(domain.RoleManager)
	apiGroup.GET("/projects", projectHandler.List)
	apiGroup.POST("/projects", projectHandler.Create, canManage)
	apiGroup.GET("/projects/:id", projectHandler.Get)
	apiGroup.PUT("/projects/:id", projectHandler.Update, canManage)
	apiGroup.POST("/projects/:id/members", projectHandler.AddMembers, canManage)
	apiGroup.DELETE("/projects/:id/members/:userId", projectHandler.RemoveMember, canManage)
	apiGroup.POST("/projects/:id/tasks", projectHandler.AddTasks, canManage)
	apiGroup.DELETE("/projects/:id/tasks/:taskId", projectHandler.RemoveTask, canManage)
	apiGroup.GET("/projects/:id/utilization", projectHandler.Utilization)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
