package ports

import (
	"context"
	"time"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

// TaskInput describes a task supplied on project create or added later.
// MemberUserID restricts the task to one member of the project.
type TaskInput struct {
	Title        string
	MemberUserID string
	StartDate    time.Time
	EndDate      time.Time
}

// MemberInput describes a member supplied on project create or added later.
type MemberInput struct {
	UserID     string
	IsBillable bool
}

// CreateProjectInput carries everything needed to create a project.
type CreateProjectInput struct {
	Title            string
	ClientName       string
	BillableHours    int
	NonBillableHours int
	StartDate        time.Time
	EndDate          time.Time
	Members          []MemberInput
	Tasks            []TaskInput
	CreatedBy        string
}

// UpdateProjectInput replaces the editable project attributes.
type UpdateProjectInput struct {
	ProjectID        string
	Title            string
	ClientName       string
	BillableHours    int
	NonBillableHours int
	StartDate        time.Time
	EndDate          time.Time
}

// ProjectUtilization compares logged hours against a project's budget.
type ProjectUtilization struct {
	ProjectID        string
	Title            string
	StartDate        time.Time
	EndDate          time.Time
	BillableHours    float64
	NonBillableHours float64
	NotUtilizedHours float64
	Utilization      float64
}

// ProjectService defines use-case operations for projects.
type ProjectService interface {
	CreateProject(ctx context.Context, input CreateProjectInput) (*domain.Project, error)
	UpdateProject(ctx context.Context, input UpdateProjectInput) (*domain.Project, error)
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	ListProjects(ctx context.Context, userID string) ([]domain.Project, error)
	GetProjectUtilization(ctx context.Context, projectID string, start, end time.Time) (*ProjectUtilization, error)

	// AddMembers adds users to the project. Removed members are restored.
	AddMembers(ctx context.Context, projectID string, members []MemberInput) (*domain.Project, error)
	// RemoveMember flags the member as removed; logged hours are kept.
	RemoveMember(ctx context.Context, projectID, userID string) (*domain.Project, error)
	AddTasks(ctx context.Context, projectID string, tasks []TaskInput) (*domain.Project, error)
	// RemoveTask flags the task as removed; logged hours are kept.
	RemoveTask(ctx context.Context, projectID, taskID string) (*domain.Project, error)
}
