package ports

import (
	"context"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

// IdentityDirectory resolves reporting lines and user profiles.
type IdentityDirectory interface {
	// ListDirectReports returns every direct report of userID. A non-empty
	// search keeps users whose display name or mail starts with it.
	ListDirectReports(ctx context.Context, userID, search string) ([]domain.Profile, error)
	GetManager(ctx context.Context, userID string) (*domain.Profile, error)
	// GetUsers resolves profiles by id. Unknown ids are left out of the result.
	GetUsers(ctx context.Context, userIDs []string) (map[string]domain.Profile, error)
}

type freshDirectoryKey struct{}

// WithFreshDirectory marks ctx so that caching decorators answer reporting
// line lookups from the directory itself. Authorization checks use it.
func WithFreshDirectory(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshDirectoryKey{}, true)
}

// FreshDirectory reports whether ctx was marked by WithFreshDirectory.
func FreshDirectory(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshDirectoryKey{}).(bool)
	return fresh
}
