package graph

import (
	"context"
	"fmt"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

// Disabled stands in for the Graph client when no app registration is
// configured. Every lookup fails with domain.ErrDirectoryUnavailable.
type Disabled struct{}

var errNotConfigured = fmt.Errorf("%w: graph credentials are not configured", domain.ErrDirectoryUnavailable)

func (Disabled) ListDirectReports(context.Context, string, string) ([]domain.Profile, error) {
	return nil, errNotConfigured
}

func (Disabled) GetManager(context.Context, string) (*domain.Profile, error) {
	return nil, errNotConfigured
}

func (Disabled) GetUsers(context.Context, []string) (map[string]domain.Profile, error) {
	return nil, errNotConfigured
}
