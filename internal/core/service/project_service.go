package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

type ProjectService struct {
	projects   ports.ProjectRepository
	timesheets ports.TimesheetRepository
	logger     zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewProjectService(projects ports.ProjectRepository, timesheets ports.TimesheetRepository, logger zerolog.Logger) *ProjectService {
	return &ProjectService{
		projects:   projects,
		timesheets: timesheets,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// CreateProject validates and stores a new project with its members and tasks.
func (s *ProjectService) CreateProject(ctx context.Context, input ports.CreateProjectInput) (*domain.Project, error) {
	p := &domain.Project{
		ID:               s.newID(),
		Title:            input.Title,
		ClientName:       input.ClientName,
		BillableHours:    input.BillableHours,
		NonBillableHours: input.NonBillableHours,
		StartDate:        domain.DateOf(input.StartDate),
		EndDate:          domain.DateOf(input.EndDate),
		CreatedBy:        input.CreatedBy,
		CreatedAt:        s.now().UTC(),
	}

	seen := make(map[string]bool, len(input.Members))
	for _, m := range input.Members {
		if m.UserID == "" || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		p.Members = append(p.Members, domain.Member{
			ID:         s.newID(),
			ProjectID:  p.ID,
			UserID:     m.UserID,
			IsBillable: m.IsBillable,
		})
	}
	for _, t := range input.Tasks {
		task, err := s.newTask(p, t)
		if err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}
		p.Tasks = append(p.Tasks, task)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info().Str("project_id", p.ID).Str("title", p.Title).Int("members", len(p.Members)).Msg("project created")
	return p, nil
}

// UpdateProject replaces the editable attributes of an existing project.
func (s *ProjectService) UpdateProject(ctx context.Context, input ports.UpdateProjectInput) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	p.Title = input.Title
	p.ClientName = input.ClientName
	p.BillableHours = input.BillableHours
	p.NonBillableHours = input.NonBillableHours
	p.StartDate = domain.DateOf(input.StartDate)
	p.EndDate = domain.DateOf(input.EndDate)

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	s.logger.Info().Str("project_id", p.ID).Msg("project updated")
	return p, nil
}

// AddMembers adds users to a project. Users already on the project keep
// their row; a removed member is restored with the new billable flag.
func (s *ProjectService) AddMembers(ctx context.Context, projectID string, members []ports.MemberInput) (*domain.Project, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("add members: %w: at least one member is required", domain.ErrInvalidArgument)
	}
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("add members: %w", err)
	}

	added := 0
	for _, in := range members {
		if in.UserID == "" {
			return nil, fmt.Errorf("add members: %w: user id is required", domain.ErrInvalidArgument)
		}
		i := memberIndex(p, in.UserID)
		switch {
		case i < 0:
			p.Members = append(p.Members, domain.Member{
				ID:         s.newID(),
				ProjectID:  p.ID,
				UserID:     in.UserID,
				IsBillable: in.IsBillable,
			})
			added++
		case p.Members[i].IsRemoved:
			p.Members[i].IsRemoved = false
			p.Members[i].IsBillable = in.IsBillable
			added++
		}
	}

	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("add members: %w", err)
	}
	s.logger.Info().Str("project_id", p.ID).Int("added", added).Msg("project members added")
	return p, nil
}

// RemoveMember flags the member of userID as removed. The member can no
// longer log hours on the project; entries already logged stay.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID string) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}
	i := memberIndex(p, userID)
	if i < 0 || p.Members[i].IsRemoved {
		return nil, fmt.Errorf("remove member: %w: %s", domain.ErrMemberNotFound, userID)
	}
	p.Members[i].IsRemoved = true

	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}
	s.logger.Info().Str("project_id", p.ID).Str("user_id", userID).Msg("project member removed")
	return p, nil
}

// AddTasks appends tasks to a project. A task naming a member user is only
// open to that member, who must be on the project.
func (s *ProjectService) AddTasks(ctx context.Context, projectID string, tasks []ports.TaskInput) (*domain.Project, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("add tasks: %w: at least one task is required", domain.ErrInvalidArgument)
	}
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("add tasks: %w", err)
	}

	for _, in := range tasks {
		task, err := s.newTask(p, in)
		if err != nil {
			return nil, fmt.Errorf("add tasks: %w", err)
		}
		p.Tasks = append(p.Tasks, task)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("add tasks: %w", err)
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("add tasks: %w", err)
	}
	s.logger.Info().Str("project_id", p.ID).Int("added", len(tasks)).Msg("project tasks added")
	return p, nil
}

// RemoveTask flags a task as removed so no further hours can be logged on it.
func (s *ProjectService) RemoveTask(ctx context.Context, projectID, taskID string) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("remove task: %w", err)
	}
	found := false
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID && !p.Tasks[i].IsRemoved {
			p.Tasks[i].IsRemoved = true
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("remove task: %w: %s", domain.ErrTaskNotFound, taskID)
	}

	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("remove task: %w", err)
	}
	s.logger.Info().Str("project_id", p.ID).Str("task_id", taskID).Msg("project task removed")
	return p, nil
}

func (s *ProjectService) newTask(p *domain.Project, in ports.TaskInput) (domain.Task, error) {
	task := domain.Task{
		ID:        s.newID(),
		ProjectID: p.ID,
		Title:     in.Title,
	}
	if in.MemberUserID != "" {
		m, ok := p.MemberOf(in.MemberUserID)
		if !ok {
			return domain.Task{}, fmt.Errorf("%w: task %q names %s who is not a project member", domain.ErrInvalidArgument, in.Title, in.MemberUserID)
		}
		task.MemberID = m.ID
	}
	if !in.StartDate.IsZero() {
		task.StartDate = domain.DateOf(in.StartDate)
	}
	if !in.EndDate.IsZero() {
		task.EndDate = domain.DateOf(in.EndDate)
	}
	return task, nil
}

func memberIndex(p *domain.Project, userID string) int {
	for i, m := range p.Members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	if projectID == "" {
		return nil, fmt.Errorf("get project: %w: project id is required", domain.ErrInvalidArgument)
	}
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	projects, err := s.projects.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}

// GetProjectUtilization compares submitted and approved hours in
// [start, end] against the project budget. A zero start or end falls back
// to the project's own dates.
func (s *ProjectService) GetProjectUtilization(ctx context.Context, projectID string, start, end time.Time) (*ports.ProjectUtilization, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project utilization: %w", err)
	}
	if start.IsZero() {
		start = p.StartDate
	}
	if end.IsZero() {
		end = p.EndDate
	}
	start, end = domain.DateOf(start), domain.DateOf(end)
	if end.Before(start) {
		return nil, fmt.Errorf("project utilization: %w: end date before start date", domain.ErrInvalidArgument)
	}

	entries, err := s.timesheets.GetTimesheetsOfProject(ctx, p.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("project utilization: %w", err)
	}

	billable := make(map[string]bool, len(p.Members))
	for _, m := range p.Members {
		billable[m.UserID] = m.IsBillable
	}

	u := &ports.ProjectUtilization{
		ProjectID: p.ID,
		Title:     p.Title,
		StartDate: start,
		EndDate:   end,
	}
	for _, e := range entries {
		if e.Status != domain.StatusSubmitted && e.Status != domain.StatusApproved {
			continue
		}
		if billable[e.UserID] {
			u.BillableHours += e.Hours
		} else {
			u.NonBillableHours += e.Hours
		}
	}

	logged := u.BillableHours + u.NonBillableHours
	budget := float64(p.TotalBudget())
	u.NotUtilizedHours = budget - logged
	if budget > 0 {
		u.Utilization = logged / budget
	}
	return u, nil
}
