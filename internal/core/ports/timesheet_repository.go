package ports

import (
	"context"
	"time"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

// TimesheetRepository defines persistence operations for timesheet entries.
// Reads go straight to the store; writes are queued on a TimesheetBatch.
type TimesheetRepository interface {
	// GetTimesheets returns the user's entries dated within [start, end].
	GetTimesheets(ctx context.Context, userID string, start, end time.Time) ([]domain.TimesheetEntry, error)
	// GetTimesheetsOfUsersByStatus returns entries with the given status grouped by user id.
	GetTimesheetsOfUsersByStatus(ctx context.Context, userIDs []string, status domain.TimesheetStatus) (map[string][]domain.TimesheetEntry, error)
	// GetSubmittedTimesheetsOfUsers returns every submitted entry of the given users.
	GetSubmittedTimesheetsOfUsers(ctx context.Context, userIDs []string) ([]domain.TimesheetEntry, error)
	// GetTimesheetsOfProject returns entries of any user logged on the project within [start, end].
	GetTimesheetsOfProject(ctx context.Context, projectID string, start, end time.Time) ([]domain.TimesheetEntry, error)
	// NewBatch starts an empty unit of work. Batches are not safe for concurrent use.
	NewBatch() TimesheetBatch
}

// TimesheetBatch queues inserts and updates and applies them in one commit.
type TimesheetBatch interface {
	Add(entry domain.TimesheetEntry)
	Update(entries []domain.TimesheetEntry)
	// Commit applies the queued changes atomically and returns the number of
	// rows (documents) that actually changed.
	Commit(ctx context.Context) (int64, error)
}
