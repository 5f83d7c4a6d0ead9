package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

type UserService struct {
	directory ports.IdentityDirectory
	logger    zerolog.Logger
}

func NewUserService(directory ports.IdentityDirectory, logger zerolog.Logger) *UserService {
	return &UserService{directory: directory, logger: logger}
}

// GetMyReportees lists the direct reports of userID, optionally narrowed
// by a display name or mail prefix.
func (s *UserService) GetMyReportees(ctx context.Context, userID, search string) ([]domain.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("reportees: %w: user is required", domain.ErrInvalidArgument)
	}
	reportees, err := s.directory.ListDirectReports(ctx, userID, search)
	if err != nil {
		return nil, fmt.Errorf("reportees: %w", err)
	}
	if reportees == nil {
		reportees = []domain.Profile{}
	}
	return reportees, nil
}

// GetManager returns nil without error when the user has no manager.
func (s *UserService) GetManager(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("manager: %w: user is required", domain.ErrInvalidArgument)
	}
	manager, err := s.directory.GetManager(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("manager: %w", err)
	}
	return manager, nil
}

// GetUsersProfile resolves profiles for ids, preserving the order of ids
// and skipping the ones the directory does not know.
func (s *UserService) GetUsersProfile(ctx context.Context, userIDs []string) ([]domain.Profile, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("users profile: %w: user ids are required", domain.ErrInvalidArgument)
	}

	unique := make([]string, 0, len(userIDs))
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	found, err := s.directory.GetUsers(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("users profile: %w", err)
	}

	profiles := make([]domain.Profile, 0, len(found))
	for _, id := range unique {
		if p, ok := found[id]; ok {
			profiles = append(profiles, p)
		}
	}
	if missing := len(unique) - len(profiles); missing > 0 {
		s.logger.Debug().Int("missing", missing).Msg("directory returned fewer profiles than requested")
	}
	return profiles, nil
}
