package ports

import (
	"context"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

// UserService exposes the identity directory to the transport layer.
type UserService interface {
	GetMyReportees(ctx context.Context, userID, search string) ([]domain.Profile, error)
	GetManager(ctx context.Context, userID string) (*domain.Profile, error)
	GetUsersProfile(ctx context.Context, userIDs []string) ([]domain.Profile, error)
}
