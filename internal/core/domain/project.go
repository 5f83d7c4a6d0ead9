package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrMemberNotFound  = errors.New("project member not found")
	ErrTaskNotFound    = errors.New("task not found")
)

// Project groups tasks and members under a budget of billable and
// non-billable hours.
type Project struct {
	ID               string
	Title            string
	ClientName       string
	BillableHours    int
	NonBillableHours int
	StartDate        time.Time
	EndDate          time.Time
	Members          []Member
	Tasks            []Task
	CreatedBy        string
	CreatedAt        time.Time
}

// Member maps a user onto a project.
type Member struct {
	ID         string
	ProjectID  string
	UserID     string
	IsBillable bool
	IsRemoved  bool
}

// Task is a unit of work that hours are logged against. MemberID is set
// when the task belongs to a single member only.
type Task struct {
	ID        string
	ProjectID string
	MemberID  string
	Title     string
	StartDate time.Time
	EndDate   time.Time
	IsRemoved bool
}

// ActiveOn reports whether day lies inside the project's date range.
func (p *Project) ActiveOn(day time.Time) bool {
	return inRange(DateOf(day), p.StartDate, p.EndDate)
}

// Overlaps reports whether the project is active on any day of [start, end].
func (p *Project) Overlaps(start, end time.Time) bool {
	return !DateOf(p.StartDate).After(DateOf(end)) && !DateOf(p.EndDate).Before(DateOf(start))
}

// MemberOf returns the non-removed member row of userID, if any.
func (p *Project) MemberOf(userID string) (Member, bool) {
	for _, m := range p.Members {
		if m.UserID == userID && !m.IsRemoved {
			return m, true
		}
	}
	return Member{}, false
}

// TotalBudget is the sum of billable and non-billable hours.
func (p *Project) TotalBudget() int {
	return p.BillableHours + p.NonBillableHours
}

// ActiveOn reports whether the task can take hours on day. Tasks without a
// date range follow their project.
func (t *Task) ActiveOn(day time.Time) bool {
	if t.IsRemoved {
		return false
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return true
	}
	return inRange(DateOf(day), t.StartDate, t.EndDate)
}

// AssignedTo reports whether member may log hours on the task.
func (t *Task) AssignedTo(member Member) bool {
	return t.MemberID == "" || t.MemberID == member.ID
}

// Validate checks the structural invariants of a project and its tasks.
func (p *Project) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: project title is required", ErrInvalidArgument)
	}
	if p.BillableHours < 0 || p.NonBillableHours < 0 {
		return fmt.Errorf("%w: project hours must not be negative", ErrInvalidArgument)
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() || DateOf(p.EndDate).Before(DateOf(p.StartDate)) {
		return fmt.Errorf("%w: project end date must not be before start date", ErrInvalidArgument)
	}
	for _, t := range p.Tasks {
		if t.Title == "" {
			return fmt.Errorf("%w: task title is required", ErrInvalidArgument)
		}
		if t.StartDate.IsZero() || t.EndDate.IsZero() {
			continue
		}
		if DateOf(t.EndDate).Before(DateOf(t.StartDate)) ||
			!inRange(DateOf(t.StartDate), p.StartDate, p.EndDate) ||
			!inRange(DateOf(t.EndDate), p.StartDate, p.EndDate) {
			return fmt.Errorf("%w: task %q must lie within the project dates", ErrInvalidArgument, t.Title)
		}
	}
	return nil
}

func inRange(day, start, end time.Time) bool {
	return !day.Before(DateOf(start)) && !day.After(DateOf(end))
}
