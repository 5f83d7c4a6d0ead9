package ports

import (
	"context"
	"time"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

// TaskTimesheet is one task row of a day view.
type TaskTimesheet struct {
	TimesheetID  string
	TaskID       string
	TaskTitle    string
	ProjectID    string
	ProjectTitle string
	Hours        float64
	Status       domain.TimesheetStatus
	IsBillable   bool
}

// DayTimesheet lists every task a user could log hours on for a day.
type DayTimesheet struct {
	Date  time.Time
	Tasks []TaskTimesheet
}

// TimesheetInput is one row of a save/submit request.
type TimesheetInput struct {
	Date   time.Time
	TaskID string
	Hours  float64
}

// SaveTimesheetsInput carries a user's edited hours.
type SaveTimesheetsInput struct {
	UserID  string
	Entries []TimesheetInput
	Submit  bool
	Now     time.Time
}

// ApprovalDecision carries the manager's verdict for one entry.
type ApprovalDecision struct {
	TimesheetID     string
	ManagerComments string
}

// ApprovalOutcome is the result of a bulk status transition.
type ApprovalOutcome int

const (
	// OutcomeFailed means changes were expected but nothing was written.
	OutcomeFailed ApprovalOutcome = iota
	// OutcomeApplied means at least one entry changed.
	OutcomeApplied
	// OutcomeNoOp means every entry already had the requested state.
	OutcomeNoOp
)

func (o ApprovalOutcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNoOp:
		return "noop"
	default:
		return "failed"
	}
}

// Applied reports whether the commit changed at least one entry.
func (o ApprovalOutcome) Applied() bool { return o == OutcomeApplied }

// SubmittedRequest summarises one user's entries for one day.
type SubmittedRequest struct {
	UserID        string
	TimesheetDate time.Time
	Status        domain.TimesheetStatus
	TotalHours    float64
	ProjectTitles []string
	TimesheetIDs  []string
}

// TimesheetService is the timesheet policy engine.
type TimesheetService interface {
	GetNotYetFrozenTimesheetDates(dates []time.Time, reference time.Time) []time.Time
	DuplicateEfforts(ctx context.Context, sourceDate time.Time, targetDates []time.Time, reference time.Time, userID string) ([]domain.TimesheetEntry, error)
	GetTimesheets(ctx context.Context, start, end time.Time, userID string) ([]DayTimesheet, error)
	SaveTimesheets(ctx context.Context, input SaveTimesheetsInput) ([]domain.TimesheetEntry, error)
	ApproveOrRejectTimesheets(ctx context.Context, entries []domain.TimesheetEntry, decisions []ApprovalDecision, status domain.TimesheetStatus) (ApprovalOutcome, error)
	GetTimesheetsByStatus(ctx context.Context, managerID string, status domain.TimesheetStatus) ([]SubmittedRequest, error)
	GetSubmittedTimesheetsByIDs(ctx context.Context, managerID string, timesheetIDs []string) ([]domain.TimesheetEntry, error)
}
