package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
)

const projectColumns = `p.id, p.title, p.client_name, p.billable_hours, p.non_billable_hours,
	p.start_date, p.end_date, p.created_by, p.created_at`

const activeMember = `EXISTS (SELECT 1 FROM project_members m
	WHERE m.project_id = p.id AND m.user_id = ? AND m.is_removed = 0)`

// ProjectRepository implements ports.ProjectRepository on SQLite.
type ProjectRepository struct {
	store *Store
}

func (r *ProjectRepository) GetActiveProjects(ctx context.Context, userID string, start, end time.Time) ([]domain.Project, error) {
	return r.query(ctx, `SELECT `+projectColumns+` FROM projects p
		WHERE p.start_date <= ? AND p.end_date >= ? AND `+activeMember+`
		ORDER BY p.title`,
		formatDate(end), formatDate(start), userID)
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	return r.query(ctx, `SELECT `+projectColumns+` FROM projects p
		WHERE p.created_by = ? OR `+activeMember+`
		ORDER BY p.title`,
		userID, userID)
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID string) (*domain.Project, error) {
	projects, err := r.query(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, projectID)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, domain.ErrProjectNotFound
	}
	return &projects[0], nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	return r.store.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO projects
			(id, title, client_name, billable_hours, non_billable_hours, start_date, end_date, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.ClientName, p.BillableHours, p.NonBillableHours,
			formatDate(p.StartDate), formatDate(p.EndDate), p.CreatedBy, formatTime(p.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		return upsertChildren(ctx, tx, p)
	})
}

func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	return r.store.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE projects
			SET title = ?, client_name = ?, billable_hours = ?, non_billable_hours = ?, start_date = ?, end_date = ?
			WHERE id = ?`,
			p.Title, p.ClientName, p.BillableHours, p.NonBillableHours,
			formatDate(p.StartDate), formatDate(p.EndDate), p.ID)
		if err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrProjectNotFound
		}
		return upsertChildren(ctx, tx, p)
	})
}

func upsertChildren(ctx context.Context, tx *sql.Tx, p *domain.Project) error {
	for _, m := range p.Members {
		_, err := tx.ExecContext(ctx, `INSERT INTO project_members (id, project_id, user_id, is_billable, is_removed)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET is_billable = excluded.is_billable, is_removed = excluded.is_removed`,
			m.ID, p.ID, m.UserID, m.IsBillable, m.IsRemoved)
		if err != nil {
			return fmt.Errorf("upsert member: %w", err)
		}
	}
	for _, t := range p.Tasks {
		_, err := tx.ExecContext(ctx, `INSERT INTO tasks (id, project_id, member_id, title, start_date, end_date, is_removed)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET member_id = excluded.member_id, title = excluded.title,
				start_date = excluded.start_date, end_date = excluded.end_date, is_removed = excluded.is_removed`,
			t.ID, p.ID, mapStringNull(t.MemberID), t.Title,
			mapOptionalDate(t.StartDate), mapOptionalDate(t.EndDate), t.IsRemoved)
		if err != nil {
			return fmt.Errorf("upsert task: %w", err)
		}
	}
	return nil
}

func (r *ProjectRepository) query(ctx context.Context, query string, args ...any) ([]domain.Project, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}

	projects := make([]domain.Project, 0)
	for rows.Next() {
		var (
			p                     domain.Project
			start, end, createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.ClientName, &p.BillableHours, &p.NonBillableHours,
			&start, &end, &p.CreatedBy, &createdAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if p.StartDate, err = parseDate(start); err == nil {
			if p.EndDate, err = parseDate(end); err == nil {
				p.CreatedAt, err = parseTime(createdAt)
			}
		}
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Release the single connection before loading members and tasks.
	_ = rows.Close()

	for i := range projects {
		if err := r.loadChildren(ctx, &projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (r *ProjectRepository) loadChildren(ctx context.Context, p *domain.Project) error {
	members, err := r.store.db.QueryContext(ctx, `SELECT id, user_id, is_billable, is_removed
		FROM project_members WHERE project_id = ? ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("query members: %w", err)
	}
	for members.Next() {
		m := domain.Member{ProjectID: p.ID}
		if err := members.Scan(&m.ID, &m.UserID, &m.IsBillable, &m.IsRemoved); err != nil {
			_ = members.Close()
			return fmt.Errorf("scan member: %w", err)
		}
		p.Members = append(p.Members, m)
	}
	if err := closeRows(members); err != nil {
		return err
	}

	tasks, err := r.store.db.QueryContext(ctx, `SELECT id, member_id, title, start_date, end_date, is_removed
		FROM tasks WHERE project_id = ? ORDER BY title, id`, p.ID)
	if err != nil {
		return fmt.Errorf("query tasks: %w", err)
	}
	for tasks.Next() {
		t := domain.Task{ProjectID: p.ID}
		var memberID, start, end sql.NullString
		if err := tasks.Scan(&t.ID, &memberID, &t.Title, &start, &end, &t.IsRemoved); err != nil {
			_ = tasks.Close()
			return fmt.Errorf("scan task: %w", err)
		}
		t.MemberID = memberID.String
		if t.StartDate, err = mapNullDate(start); err == nil {
			t.EndDate, err = mapNullDate(end)
		}
		if err != nil {
			_ = tasks.Close()
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
		p.Tasks = append(p.Tasks, t)
	}
	return closeRows(tasks)
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}
