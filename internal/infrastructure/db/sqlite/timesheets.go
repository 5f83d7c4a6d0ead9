package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

const timesheetColumns = `id, user_id, task_id, task_title, project_id, project_title, date, hours,
	status, manager_comments, submitted_on, created_at, updated_at`

// TimesheetRepository implements ports.TimesheetRepository on SQLite.
type TimesheetRepository struct {
	store *Store
}

func (r *TimesheetRepository) GetTimesheets(ctx context.Context, userID string, start, end time.Time) ([]domain.TimesheetEntry, error) {
	return r.query(ctx, `SELECT `+timesheetColumns+` FROM timesheets
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date, task_title`,
		userID, formatDate(start), formatDate(end))
}

func (r *TimesheetRepository) GetTimesheetsOfUsersByStatus(ctx context.Context, userIDs []string, status domain.TimesheetStatus) (map[string][]domain.TimesheetEntry, error) {
	grouped := make(map[string][]domain.TimesheetEntry)
	if len(userIDs) == 0 {
		return grouped, nil
	}

	in, args := inClause(userIDs)
	entries, err := r.query(ctx, `SELECT `+timesheetColumns+` FROM timesheets
		WHERE user_id IN (`+in+`) AND status = ?
		ORDER BY user_id, date, task_title`,
		append(args, int(status))...)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		grouped[e.UserID] = append(grouped[e.UserID], e)
	}
	return grouped, nil
}

func (r *TimesheetRepository) GetSubmittedTimesheetsOfUsers(ctx context.Context, userIDs []string) ([]domain.TimesheetEntry, error) {
	if len(userIDs) == 0 {
		return []domain.TimesheetEntry{}, nil
	}

	in, args := inClause(userIDs)
	return r.query(ctx, `SELECT `+timesheetColumns+` FROM timesheets
		WHERE user_id IN (`+in+`) AND status = ?
		ORDER BY user_id, date, task_title`,
		append(args, int(domain.StatusSubmitted))...)
}

func (r *TimesheetRepository) GetTimesheetsOfProject(ctx context.Context, projectID string, start, end time.Time) ([]domain.TimesheetEntry, error) {
	return r.query(ctx, `SELECT `+timesheetColumns+` FROM timesheets
		WHERE project_id = ? AND date >= ? AND date <= ?
		ORDER BY date, user_id`,
		projectID, formatDate(start), formatDate(end))
}

func (r *TimesheetRepository) NewBatch() ports.TimesheetBatch {
	return &timesheetBatch{store: r.store}
}

func (r *TimesheetRepository) query(ctx context.Context, query string, args ...any) ([]domain.TimesheetEntry, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query timesheets: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.TimesheetEntry, 0)
	for rows.Next() {
		e, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanTimesheet(rows *sql.Rows) (domain.TimesheetEntry, error) {
	var (
		e                          domain.TimesheetEntry
		date, createdAt, updatedAt string
		status                     int
		submittedOn                sql.NullString
	)
	err := rows.Scan(&e.ID, &e.UserID, &e.TaskID, &e.TaskTitle, &e.ProjectID, &e.ProjectTitle,
		&date, &e.Hours, &status, &e.ManagerComments, &submittedOn, &createdAt, &updatedAt)
	if err != nil {
		return e, fmt.Errorf("scan timesheet: %w", err)
	}

	e.Status = domain.TimesheetStatus(status)
	if e.Date, err = parseDate(date); err != nil {
		return e, fmt.Errorf("timesheet %s date: %w", e.ID, err)
	}
	if e.SubmittedOn, err = mapNullTimePtr(submittedOn); err != nil {
		return e, fmt.Errorf("timesheet %s submitted_on: %w", e.ID, err)
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return e, fmt.Errorf("timesheet %s created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return e, fmt.Errorf("timesheet %s updated_at: %w", e.ID, err)
	}
	return e, nil
}

// timesheetBatch stages inserts and updates and applies them in one
// transaction.
type timesheetBatch struct {
	store   *Store
	added   []domain.TimesheetEntry
	updated []domain.TimesheetEntry
}

func (b *timesheetBatch) Add(entry domain.TimesheetEntry) { b.added = append(b.added, entry) }

func (b *timesheetBatch) Update(entries []domain.TimesheetEntry) {
	b.updated = append(b.updated, entries...)
}

// Commit returns the number of inserted rows plus the number of rows whose
// values actually changed.
func (b *timesheetBatch) Commit(ctx context.Context) (int64, error) {
	if len(b.added) == 0 && len(b.updated) == 0 {
		return 0, nil
	}

	var affected int64
	err := b.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, e := range b.added {
			_, err := tx.ExecContext(ctx, `INSERT INTO timesheets (`+timesheetColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.ID, e.UserID, e.TaskID, e.TaskTitle, e.ProjectID, e.ProjectTitle,
				formatDate(e.Date), e.Hours, int(e.Status), e.ManagerComments,
				mapOptionalTime(e.SubmittedOn), formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
			if err != nil {
				return fmt.Errorf("insert timesheet: %w", mapUniqueViolation(err))
			}
			affected++
		}

		for _, e := range b.updated {
			submitted := mapOptionalTime(e.SubmittedOn)
			res, err := tx.ExecContext(ctx, `UPDATE timesheets
				SET hours = ?, status = ?, manager_comments = ?,
					submitted_on = COALESCE(?, submitted_on), updated_at = ?
				WHERE id = ? AND (hours <> ? OR status <> ? OR manager_comments <> ? OR updated_at <> ?)`,
				e.Hours, int(e.Status), e.ManagerComments, submitted, formatTime(e.UpdatedAt),
				e.ID, e.Hours, int(e.Status), e.ManagerComments, formatTime(e.UpdatedAt))
			if err != nil {
				return fmt.Errorf("update timesheet: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	})

	b.added, b.updated = nil, nil
	if err != nil {
		return 0, err
	}
	return affected, nil
}
