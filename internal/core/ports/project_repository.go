package ports

import (
	"context"
	"time"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

// ProjectRepository is the project/task directory.
type ProjectRepository interface {
	// GetActiveProjects returns projects overlapping [start, end] in which
	// userID is a non-removed member. Members and tasks are populated.
	GetActiveProjects(ctx context.Context, userID string, start, end time.Time) ([]domain.Project, error)
	// GetByID returns domain.ErrProjectNotFound when no project matches.
	GetByID(ctx context.Context, projectID string) (*domain.Project, error)
	// ListByUser returns projects created by or assigned to userID.
	ListByUser(ctx context.Context, userID string) ([]domain.Project, error)
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
}
