package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/api/middleware"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

type stubTimesheetService struct {
	notFrozenFn    func(dates []time.Time, reference time.Time) []time.Time
	duplicateFn    func(ctx context.Context, source time.Time, targets []time.Time, reference time.Time, userID string) ([]domain.TimesheetEntry, error)
	getFn          func(ctx context.Context, start, end time.Time, userID string) ([]ports.DayTimesheet, error)
	saveFn         func(ctx context.Context, in ports.SaveTimesheetsInput) ([]domain.TimesheetEntry, error)
	transitionFn   func(ctx context.Context, entries []domain.TimesheetEntry, decisions []ports.ApprovalDecision, status domain.TimesheetStatus) (ports.ApprovalOutcome, error)
	byStatusFn     func(ctx context.Context, managerID string, status domain.TimesheetStatus) ([]ports.SubmittedRequest, error)
	submittedByIDs func(ctx context.Context, managerID string, ids []string) ([]domain.TimesheetEntry, error)
}

func (s *stubTimesheetService) GetNotYetFrozenTimesheetDates(dates []time.Time, reference time.Time) []time.Time {
	if s.notFrozenFn == nil {
		return dates
	}
	return s.notFrozenFn(dates, reference)
}

func (s *stubTimesheetService) DuplicateEfforts(ctx context.Context, source time.Time, targets []time.Time, reference time.Time, userID string) ([]domain.TimesheetEntry, error) {
	return s.duplicateFn(ctx, source, targets, reference, userID)
}

func (s *stubTimesheetService) GetTimesheets(ctx context.Context, start, end time.Time, userID string) ([]ports.DayTimesheet, error) {
	return s.getFn(ctx, start, end, userID)
}

func (s *stubTimesheetService) SaveTimesheets(ctx context.Context, in ports.SaveTimesheetsInput) ([]domain.TimesheetEntry, error) {
	return s.saveFn(ctx, in)
}

func (s *stubTimesheetService) ApproveOrRejectTimesheets(ctx context.Context, entries []domain.TimesheetEntry, decisions []ports.ApprovalDecision, status domain.TimesheetStatus) (ports.ApprovalOutcome, error) {
	return s.transitionFn(ctx, entries, decisions, status)
}

func (s *stubTimesheetService) GetTimesheetsByStatus(ctx context.Context, managerID string, status domain.TimesheetStatus) ([]ports.SubmittedRequest, error) {
	return s.byStatusFn(ctx, managerID, status)
}

func (s *stubTimesheetService) GetSubmittedTimesheetsByIDs(ctx context.Context, managerID string, ids []string) ([]domain.TimesheetEntry, error) {
	return s.submittedByIDs(ctx, managerID, ids)
}

type stubProjectService struct {
	createFn      func(ctx context.Context, in ports.CreateProjectInput) (*domain.Project, error)
	updateFn      func(ctx context.Context, in ports.UpdateProjectInput) (*domain.Project, error)
	getFn         func(ctx context.Context, id string) (*domain.Project, error)
	listFn        func(ctx context.Context, userID string) ([]domain.Project, error)
	utilizationFn func(ctx context.Context, id string, start, end time.Time) (*ports.ProjectUtilization, error)
	addMembersFn  func(ctx context.Context, id string, members []ports.MemberInput) (*domain.Project, error)
	removeMember  func(ctx context.Context, id, userID string) (*domain.Project, error)
	addTasksFn    func(ctx context.Context, id string, tasks []ports.TaskInput) (*domain.Project, error)
	removeTask    func(ctx context.Context, id, taskID string) (*domain.Project, error)
}

func (s *stubProjectService) CreateProject(ctx context.Context, in ports.CreateProjectInput) (*domain.Project, error) {
	return s.createFn(ctx, in)
}

func (s *stubProjectService) UpdateProject(ctx context.Context, in ports.UpdateProjectInput) (*domain.Project, error) {
	return s.updateFn(ctx, in)
}

func (s *stubProjectService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return s.getFn(ctx, id)
}

func (s *stubProjectService) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	return s.listFn(ctx, userID)
}

func (s *stubProjectService) GetProjectUtilization(ctx context.Context, id string, start, end time.Time) (*ports.ProjectUtilization, error) {
	return s.utilizationFn(ctx, id, start, end)
}

func (s *stubProjectService) AddMembers(ctx context.Context, id string, members []ports.MemberInput) (*domain.Project, error) {
	return s.addMembersFn(ctx, id, members)
}

func (s *stubProjectService) RemoveMember(ctx context.Context, id, userID string) (*domain.Project, error) {
	return s.removeMember(ctx, id, userID)
}

func (s *stubProjectService) AddTasks(ctx context.Context, id string, tasks []ports.TaskInput) (*domain.Project, error) {
	return s.addTasksFn(ctx, id, tasks)
}

func (s *stubProjectService) RemoveTask(ctx context.Context, id, taskID string) (*domain.Project, error) {
	return s.removeTask(ctx, id, taskID)
}

type stubUserService struct {
	reporteesFn func(ctx context.Context, userID, search string) ([]domain.Profile, error)
	managerFn   func(ctx context.Context, userID string) (*domain.Profile, error)
	profilesFn  func(ctx context.Context, ids []string) ([]domain.Profile, error)
}

func (s *stubUserService) GetMyReportees(ctx context.Context, userID, search string) ([]domain.Profile, error) {
	return s.reporteesFn(ctx, userID, search)
}

func (s *stubUserService) GetManager(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.managerFn(ctx, userID)
}

func (s *stubUserService) GetUsersProfile(ctx context.Context, ids []string) ([]domain.Profile, error) {
	return s.profilesFn(ctx, ids)
}

type memoryIdempotency struct {
	bodies map[string][]byte
}

func (m *memoryIdempotency) Lookup(_ context.Context, userID, key string) ([]byte, bool, error) {
	b, ok := m.bodies[userID+":"+key]
	return b, ok, nil
}

func (m *memoryIdempotency) Remember(_ context.Context, userID, key string, body []byte) error {
	if m.bodies == nil {
		m.bodies = make(map[string][]byte)
	}
	m.bodies[userID+":"+key] = body
	return nil
}

// newContext builds an authenticated echo context for userID with role.
func newContext(t *testing.T, method, target, body, userID, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
	}
	return c, rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
