package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/api/metrics"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

// IdempotencyStore replays responses of requests retried with the same
// Idempotency-Key header.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, key string) ([]byte, bool, error)
	Remember(ctx context.Context, userID, key string, body []byte) error
}

// TimesheetHandler handles HTTP requests for the caller's timesheets and
// their reportees' approvals.
type TimesheetHandler struct {
	service     ports.TimesheetService
	idempotency IdempotencyStore
	logger      zerolog.Logger
	now         func() time.Time
}

// NewTimesheetHandler creates a TimesheetHandler. idempotency may be nil, in
// which case Idempotency-Key headers are ignored.
func NewTimesheetHandler(service ports.TimesheetService, idempotency IdempotencyStore, logger zerolog.Logger) *TimesheetHandler {
	return &TimesheetHandler{
		service:     service,
		idempotency: idempotency,
		logger:      logger,
		now:         time.Now,
	}
}

// List handles GET /api/timesheets.
//
// @Summary      Get the caller's timesheets per day
// @Tags         timesheets
// @Produce      json
// @Security     BearerAuth
// @Param        startDate  query     string  true  "First day (YYYY-MM-DD)"
// @Param        endDate    query     string  true  "Last day (YYYY-MM-DD)"
// @Success      200        {array}   dayTimesheetResponse
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Router       /api/timesheets [get]
func (h *TimesheetHandler) List(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	start, err := parseDate("startDate", c.QueryParam("startDate"))
	if err != nil {
		return err
	}
	end, err := parseDate("endDate", c.QueryParam("endDate"))
	if err != nil {
		return err
	}

	days, err := h.service.GetTimesheets(c.Request().Context(), start, end, who.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDayResponses(days))
}

// Save handles POST /api/timesheets.
//
// @Summary      Save or submit hours
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      saveTimesheetsRequest  true  "Hours per task and day"
// @Success      200   {array}   timesheetResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/timesheets [post]
func (h *TimesheetHandler) Save(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req saveTimesheetsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toSaveInput(who.UserID, req, h.now())
	if err != nil {
		return err
	}

	saved, err := h.service.SaveTimesheets(c.Request().Context(), in)
	if err != nil {
		return err
	}

	action := "save"
	if req.Submit {
		action = "submit"
	}
	metrics.TimesheetsSavedTotal.WithLabelValues(action).Add(float64(len(saved)))
	return c.JSON(http.StatusOK, toTimesheetResponses(saved))
}

// UnfrozenDates handles POST /api/timesheets/unfrozen-dates.
//
// @Summary      Filter dates still open for editing
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      datesRequest  true  "Candidate dates"
// @Success      200   {object}  datesResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/timesheets/unfrozen-dates [post]
func (h *TimesheetHandler) UnfrozenDates(c echo.Context) error {
	if _, err := callerFrom(c); err != nil {
		return err
	}
	var req datesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	dates, err := parseDates("dates", req.Dates)
	if err != nil {
		return err
	}

	open := h.service.GetNotYetFrozenTimesheetDates(dates, h.now())
	return c.JSON(http.StatusOK, datesResponse{Dates: formatDates(open)})
}

// Duplicate handles POST /api/timesheets/duplicate.
//
// @Summary      Copy one day's hours onto other days
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string            false  "Replays the first response for retried requests"
// @Param        body             body      duplicateRequest  true   "Source and target dates"
// @Success      201              {array}   timesheetResponse
// @Failure      400              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /api/timesheets/duplicate [post]
func (h *TimesheetHandler) Duplicate(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	key := c.Request().Header.Get("Idempotency-Key")
	if key != "" && h.idempotency != nil {
		body, ok, err := h.idempotency.Lookup(ctx, who.UserID, key)
		if err != nil {
			h.logger.Warn().Err(err).Str("user_id", who.UserID).Msg("idempotency lookup failed")
		} else if ok {
			metrics.DuplicateReplaysTotal.Inc()
			return c.JSONBlob(http.StatusCreated, body)
		}
	}

	var req duplicateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	source, err := parseDate("sourceDate", req.SourceDate)
	if err != nil {
		return err
	}
	targets, err := parseDates("targetDates", req.TargetDates)
	if err != nil {
		return err
	}
	targets = uniqueDates(targets)
	for _, t := range targets {
		if t.Equal(source) {
			return fmt.Errorf("%w: targetDates must not contain sourceDate", domain.ErrInvalidArgument)
		}
	}

	now := h.now()
	if open := h.service.GetNotYetFrozenTimesheetDates(targets, now); len(open) != len(targets) {
		return fmt.Errorf("%w: %d of %d target dates", domain.ErrFrozenDate, len(targets)-len(open), len(targets))
	}

	created, err := h.service.DuplicateEfforts(ctx, source, targets, now, who.UserID)
	if err != nil {
		return err
	}
	metrics.EffortsDuplicatedTotal.Add(float64(len(created)))

	body, err := json.Marshal(toTimesheetResponses(created))
	if err != nil {
		return err
	}
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.Remember(ctx, who.UserID, key, body); err != nil {
			h.logger.Warn().Err(err).Str("user_id", who.UserID).Msg("idempotency remember failed")
		}
	}
	return c.JSONBlob(http.StatusCreated, body)
}

// ListReportees handles GET /api/reportees/timesheets.
//
// @Summary      Summaries of the caller's reportees' timesheets by status
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "submitted (default), approved or rejected"
// @Success      200     {array}   submittedRequestResponse
// @Failure      400     {object}  errorResponse
// @Failure      502     {object}  errorResponse
// @Router       /api/reportees/timesheets [get]
func (h *TimesheetHandler) ListReportees(c echo.Context) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	status := domain.StatusSubmitted
	if raw := c.QueryParam("status"); raw != "" {
		parsed, ok := domain.ParseTimesheetStatus(raw)
		if !ok || parsed == domain.StatusNone {
			return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, raw)
		}
		status = parsed
	}

	requests, err := h.service.GetTimesheetsByStatus(c.Request().Context(), who.UserID, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSubmittedResponses(requests))
}

// Approve handles POST /api/reportees/timesheets/approve.
//
// @Summary      Approve submitted timesheets
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      approvalRequest  true  "Timesheets and comments"
// @Success      200   {object}  approvalResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/reportees/timesheets/approve [post]
func (h *TimesheetHandler) Approve(c echo.Context) error {
	return h.transition(c, domain.StatusApproved)
}

// Reject handles POST /api/reportees/timesheets/reject.
//
// @Summary      Reject submitted timesheets
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      approvalRequest  true  "Timesheets and comments"
// @Success      200   {object}  approvalResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/reportees/timesheets/reject [post]
func (h *TimesheetHandler) Reject(c echo.Context) error {
	return h.transition(c, domain.StatusRejected)
}

func (h *TimesheetHandler) transition(c echo.Context, status domain.TimesheetStatus) error {
	who, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req approvalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	decisions := make([]ports.ApprovalDecision, 0, len(req.Timesheets))
	ids := make([]string, 0, len(req.Timesheets))
	seen := make(map[string]struct{}, len(req.Timesheets))
	for _, t := range req.Timesheets {
		if _, ok := seen[t.TimesheetID]; ok {
			continue
		}
		seen[t.TimesheetID] = struct{}{}
		ids = append(ids, t.TimesheetID)
		decisions = append(decisions, ports.ApprovalDecision{TimesheetID: t.TimesheetID, ManagerComments: t.ManagerComments})
	}

	ctx := c.Request().Context()
	entries, err := h.service.GetSubmittedTimesheetsByIDs(ctx, who.UserID, ids)
	if err != nil {
		return err
	}
	if len(entries) != len(ids) {
		return fmt.Errorf("%w: %d of %d timesheets are not awaiting your approval", domain.ErrInvalidArgument, len(ids)-len(entries), len(ids))
	}

	outcome, err := h.service.ApproveOrRejectTimesheets(ctx, entries, decisions, status)
	metrics.ApprovalsTotal.WithLabelValues(status.String(), outcome.String()).Inc()
	if err != nil {
		return err
	}
	if outcome == ports.OutcomeFailed {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to update timesheets"})
	}
	return c.JSON(http.StatusOK, approvalResponse{Outcome: outcome.String(), Timesheets: len(entries)})
}
