package domain

import (
	"errors"
	"time"
)

// TimesheetStatus represents the approval state of a timesheet entry.
type TimesheetStatus int

const (
	StatusNone TimesheetStatus = iota
	StatusSubmitted
	StatusApproved
	StatusRejected
)

var statusNames = map[TimesheetStatus]string{
	StatusNone:      "none",
	StatusSubmitted: "submitted",
	StatusApproved:  "approved",
	StatusRejected:  "rejected",
}

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrFrozenDate          = errors.New("timesheet date is frozen")
	ErrTimesheetLocked     = errors.New("timesheet is already approved")
	ErrWeeklyLimitExceeded = errors.New("weekly efforts limit exceeded")
	ErrTaskNotAssigned     = errors.New("task is not assigned to user")
	ErrForbidden           = errors.New("access forbidden")
	ErrDuplicateTimesheet  = errors.New("timesheet already exists for task and date")
)

func (s TimesheetStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseTimesheetStatus maps the lowercase status name back to its value.
func ParseTimesheetStatus(name string) (TimesheetStatus, bool) {
	for status, n := range statusNames {
		if n == name {
			return status, true
		}
	}
	return StatusNone, false
}

// TimesheetEntry is the hours a user logged against one task on one day.
// (UserID, TaskID, Date) is unique.
type TimesheetEntry struct {
	ID              string
	UserID          string
	TaskID          string
	TaskTitle       string
	ProjectID       string
	ProjectTitle    string
	Date            time.Time
	Hours           float64
	Status          TimesheetStatus
	ManagerComments string
	SubmittedOn     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
