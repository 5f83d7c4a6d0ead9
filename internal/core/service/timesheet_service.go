package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

const (
	maxRangeDays  = 366
	maxHoursInDay = 24
)

// TimesheetService implements the timesheet policy engine: freeze checks,
// duplication, day views, save/submit and manager approvals.
type TimesheetService struct {
	timesheets  ports.TimesheetRepository
	projects    ports.ProjectRepository
	directory   ports.IdentityDirectory
	freeze      domain.FreezePolicy
	weeklyLimit float64
	logger      zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewTimesheetService(
	timesheets ports.TimesheetRepository,
	projects ports.ProjectRepository,
	directory ports.IdentityDirectory,
	freeze domain.FreezePolicy,
	weeklyLimit float64,
	logger zerolog.Logger,
) *TimesheetService {
	return &TimesheetService{
		timesheets:  timesheets,
		projects:    projects,
		directory:   directory,
		freeze:      freeze,
		weeklyLimit: weeklyLimit,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// GetNotYetFrozenTimesheetDates returns the dates still open for editing
// relative to reference.
func (s *TimesheetService) GetNotYetFrozenTimesheetDates(dates []time.Time, reference time.Time) []time.Time {
	return s.freeze.NotYetFrozen(dates, reference)
}

// DuplicateEfforts copies the hours logged on sourceDate onto every target
// date. A task is only copied onto days on which it is assigned to the user,
// and the copies must stay within the daily and weekly effort limits. It is
// not idempotent; callers dedupe target dates beforehand.
func (s *TimesheetService) DuplicateEfforts(ctx context.Context, sourceDate time.Time, targetDates []time.Time, reference time.Time, userID string) ([]domain.TimesheetEntry, error) {
	if userID == "" || len(targetDates) == 0 {
		return nil, fmt.Errorf("duplicate efforts: %w: user and target dates are required", domain.ErrInvalidArgument)
	}

	sourceDate = domain.DateOf(sourceDate)
	start, end := span(sourceDate, targetDates)

	projects, err := s.projects.GetActiveProjects(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("duplicate efforts: projects: %w", err)
	}
	existing, err := s.timesheets.GetTimesheets(ctx, userID, sourceDate, sourceDate)
	if err != nil {
		return nil, fmt.Errorf("duplicate efforts: timesheets: %w", err)
	}

	sources := make([]domain.TimesheetEntry, 0, len(existing))
	for _, e := range existing {
		if !domain.SameDay(e.Date, sourceDate) || assignmentRemoved(projects, e, userID) {
			continue
		}
		sources = append(sources, e)
	}
	if len(sources) == 0 {
		s.logger.Debug().Str("user_id", userID).Time("source_date", sourceDate).Msg("no efforts to duplicate")
		return []domain.TimesheetEntry{}, nil
	}

	createdAt := reference.UTC()
	created := make([]domain.TimesheetEntry, 0, len(sources)*len(targetDates))
	skipped := 0
	for _, target := range targetDates {
		target = domain.DateOf(target)
		for _, src := range sources {
			project, task, ok := assignedTask(projects, userID, src.TaskID, target)
			if !ok {
				skipped++
				continue
			}
			created = append(created, domain.TimesheetEntry{
				ID:           s.newID(),
				UserID:       userID,
				TaskID:       task.ID,
				TaskTitle:    task.Title,
				ProjectID:    project.ID,
				ProjectTitle: project.Title,
				Date:         target,
				Hours:        src.Hours,
				Status:       domain.StatusNone,
				CreatedAt:    createdAt,
				UpdatedAt:    createdAt,
			})
		}
	}
	if skipped > 0 {
		s.logger.Debug().Str("user_id", userID).Int("skipped", skipped).Msg("tasks not assigned on target dates")
	}
	if len(created) == 0 {
		return created, nil
	}

	if err := s.checkDuplicateLimits(ctx, userID, targetDates, created); err != nil {
		return nil, fmt.Errorf("duplicate efforts: %w", err)
	}

	batch := s.timesheets.NewBatch()
	for _, e := range created {
		batch.Add(e)
	}

	if _, err := batch.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to duplicate efforts")
		return nil, fmt.Errorf("duplicate efforts: commit: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Time("source_date", sourceDate).
		Int("targets", len(targetDates)).
		Int("created", len(created)).
		Msg("efforts duplicated")

	return created, nil
}

// GetTimesheets builds one view per day in [start, end] on which the user
// has an active project assignment.
func (s *TimesheetService) GetTimesheets(ctx context.Context, start, end time.Time, userID string) ([]ports.DayTimesheet, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	if userID == "" || end.Before(start) {
		return nil, fmt.Errorf("get timesheets: %w: user and a valid date range are required", domain.ErrInvalidArgument)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("get timesheets: %w: range exceeds %d days", domain.ErrInvalidArgument, maxRangeDays)
	}

	projects, err := s.projects.GetActiveProjects(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get timesheets: projects: %w", err)
	}
	if len(projects) == 0 {
		return []ports.DayTimesheet{}, nil
	}

	entries, err := s.timesheets.GetTimesheets(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get timesheets: %w", err)
	}
	logged := make(map[entryKey]domain.TimesheetEntry, len(entries))
	for _, e := range entries {
		logged[keyOf(e.Date, e.TaskID)] = e
	}

	days := make([]ports.DayTimesheet, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		var rows []ports.TaskTimesheet
		active := false
		for i := range projects {
			p := &projects[i]
			if !p.ActiveOn(d) {
				continue
			}
			member, ok := p.MemberOf(userID)
			if !ok {
				continue
			}
			active = true
			for j := range p.Tasks {
				t := &p.Tasks[j]
				entry, hasEntry := logged[keyOf(d, t.ID)]
				if !hasEntry && !(t.ActiveOn(d) && t.AssignedTo(member)) {
					continue
				}
				row := ports.TaskTimesheet{
					TaskID:       t.ID,
					TaskTitle:    t.Title,
					ProjectID:    p.ID,
					ProjectTitle: p.Title,
					IsBillable:   member.IsBillable,
				}
				if hasEntry {
					row.TimesheetID = entry.ID
					row.Hours = entry.Hours
					row.Status = entry.Status
				}
				rows = append(rows, row)
			}
		}
		if !active {
			continue
		}
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].TaskTitle < rows[b].TaskTitle })
		if rows == nil {
			rows = []ports.TaskTimesheet{}
		}
		days = append(days, ports.DayTimesheet{Date: d, Tasks: rows})
	}
	return days, nil
}

// SaveTimesheets stores the user's hours, creating entries on first save
// and updating them afterwards. With Submit set the entries go to the
// manager for approval.
func (s *TimesheetService) SaveTimesheets(ctx context.Context, in ports.SaveTimesheetsInput) ([]domain.TimesheetEntry, error) {
	if in.UserID == "" || len(in.Entries) == 0 {
		return nil, fmt.Errorf("save timesheets: %w: user and entries are required", domain.ErrInvalidArgument)
	}
	now := in.Now
	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()

	// Later rows for the same (date, task) win.
	inputs := make(map[entryKey]ports.TimesheetInput, len(in.Entries))
	order := make([]entryKey, 0, len(in.Entries))
	dates := make([]time.Time, 0, len(in.Entries))
	for _, row := range in.Entries {
		if row.TaskID == "" || row.Date.IsZero() {
			return nil, fmt.Errorf("save timesheets: %w: date and task are required", domain.ErrInvalidArgument)
		}
		if row.Hours < 0 || row.Hours > maxHoursInDay {
			return nil, fmt.Errorf("save timesheets: %w: hours must be within 0..%d", domain.ErrInvalidArgument, maxHoursInDay)
		}
		row.Date = domain.DateOf(row.Date)
		if s.freeze.IsFrozen(row.Date, now) {
			return nil, fmt.Errorf("save timesheets: %w: %s", domain.ErrFrozenDate, row.Date.Format(time.DateOnly))
		}
		k := keyOf(row.Date, row.TaskID)
		if _, seen := inputs[k]; !seen {
			order = append(order, k)
		}
		inputs[k] = row
		dates = append(dates, row.Date)
	}

	first, last := span(dates[0], dates)
	weekStart, _ := isoWeek(first)
	_, weekEnd := isoWeek(last)

	projects, err := s.projects.GetActiveProjects(ctx, in.UserID, first, last)
	if err != nil {
		return nil, fmt.Errorf("save timesheets: projects: %w", err)
	}
	existing, err := s.timesheets.GetTimesheets(ctx, in.UserID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("save timesheets: %w", err)
	}

	merged := make(map[entryKey]float64, len(existing)+len(inputs))
	current := make(map[entryKey]domain.TimesheetEntry, len(existing))
	for _, e := range existing {
		k := keyOf(e.Date, e.TaskID)
		current[k] = e
		merged[k] = e.Hours
	}
	for k, row := range inputs {
		merged[k] = row.Hours
	}
	if err := s.checkEffortLimits(merged); err != nil {
		return nil, fmt.Errorf("save timesheets: %w", err)
	}

	status := domain.StatusNone
	if in.Submit {
		status = domain.StatusSubmitted
	}

	batch := s.timesheets.NewBatch()
	saved := make([]domain.TimesheetEntry, 0, len(order))
	var updates []domain.TimesheetEntry
	for _, k := range order {
		row := inputs[k]
		if e, ok := current[k]; ok {
			if e.Status == domain.StatusApproved {
				return nil, fmt.Errorf("save timesheets: %w: %s", domain.ErrTimesheetLocked, row.Date.Format(time.DateOnly))
			}
			if _, _, ok := assignedTask(projects, in.UserID, row.TaskID, row.Date); !ok {
				return nil, fmt.Errorf("save timesheets: %w: task %s on %s", domain.ErrTaskNotAssigned, row.TaskID, row.Date.Format(time.DateOnly))
			}
			e.Hours = row.Hours
			e.Status = status
			e.UpdatedAt = now
			if in.Submit {
				e.SubmittedOn = &now
			}
			updates = append(updates, e)
			saved = append(saved, e)
			continue
		}

		project, task, ok := assignedTask(projects, in.UserID, row.TaskID, row.Date)
		if !ok {
			return nil, fmt.Errorf("save timesheets: %w: task %s on %s", domain.ErrTaskNotAssigned, row.TaskID, row.Date.Format(time.DateOnly))
		}
		e := domain.TimesheetEntry{
			ID:           s.newID(),
			UserID:       in.UserID,
			TaskID:       task.ID,
			TaskTitle:    task.Title,
			ProjectID:    project.ID,
			ProjectTitle: project.Title,
			Date:         row.Date,
			Hours:        row.Hours,
			Status:       status,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if in.Submit {
			e.SubmittedOn = &now
		}
		batch.Add(e)
		saved = append(saved, e)
	}
	if len(updates) > 0 {
		batch.Update(updates)
	}

	if _, err := batch.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("user_id", in.UserID).Msg("failed to save timesheets")
		return nil, fmt.Errorf("save timesheets: commit: %w", err)
	}

	s.logger.Info().
		Str("user_id", in.UserID).
		Int("entries", len(saved)).
		Bool("submitted", in.Submit).
		Msg("timesheets saved")

	sortEntries(saved)
	return saved, nil
}

// checkDuplicateLimits merges the copies into the hours already stored in the
// target weeks and applies the effort limits to the result.
func (s *TimesheetService) checkDuplicateLimits(ctx context.Context, userID string, targetDates []time.Time, copies []domain.TimesheetEntry) error {
	first, last := span(targetDates[0], targetDates)
	weekStart, _ := isoWeek(first)
	_, weekEnd := isoWeek(last)

	stored, err := s.timesheets.GetTimesheets(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("timesheets: %w", err)
	}
	merged := make(map[entryKey]float64, len(stored)+len(copies))
	for _, e := range stored {
		merged[keyOf(e.Date, e.TaskID)] = e.Hours
	}
	for _, e := range copies {
		merged[keyOf(e.Date, e.TaskID)] = e.Hours
	}
	return s.checkEffortLimits(merged)
}

func (s *TimesheetService) checkEffortLimits(hours map[entryKey]float64) error {
	perDay := make(map[time.Time]float64)
	perWeek := make(map[time.Time]float64)
	for k, h := range hours {
		perDay[k.date] += h
		monday, _ := isoWeek(k.date)
		perWeek[monday] += h
	}
	for d, total := range perDay {
		if total > maxHoursInDay {
			return fmt.Errorf("%w: %.2f hours logged on %s", domain.ErrInvalidArgument, total, d.Format(time.DateOnly))
		}
	}
	if s.weeklyLimit <= 0 {
		return nil
	}
	for monday, total := range perWeek {
		if total > s.weeklyLimit {
			return fmt.Errorf("%w: %.2f hours in week of %s (limit %.0f)", domain.ErrWeeklyLimitExceeded, total, monday.Format(time.DateOnly), s.weeklyLimit)
		}
	}
	return nil
}

// ApproveOrRejectTimesheets moves entries to status and records the
// manager's comments.
func (s *TimesheetService) ApproveOrRejectTimesheets(ctx context.Context, entries []domain.TimesheetEntry, decisions []ports.ApprovalDecision, status domain.TimesheetStatus) (ports.ApprovalOutcome, error) {
	if len(entries) == 0 {
		return ports.OutcomeFailed, fmt.Errorf("approve or reject: %w: no timesheets given", domain.ErrInvalidArgument)
	}
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return ports.OutcomeFailed, fmt.Errorf("approve or reject: %w: status %s", domain.ErrInvalidArgument, status)
	}

	comments := make(map[string]string, len(decisions))
	for _, d := range decisions {
		comments[d.TimesheetID] = d.ManagerComments
	}

	now := s.now().UTC()
	changed := false
	updated := make([]domain.TimesheetEntry, len(entries))
	for i, e := range entries {
		comment, hasComment := comments[e.ID]
		if e.Status != status || (hasComment && e.ManagerComments != comment) {
			changed = true
			e.Status = status
			if hasComment {
				e.ManagerComments = comment
			}
			e.UpdatedAt = now
		}
		updated[i] = e
	}

	batch := s.timesheets.NewBatch()
	batch.Update(updated)
	rows, err := batch.Commit(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("status", status.String()).Msg("failed to update timesheet status")
		return ports.OutcomeFailed, fmt.Errorf("approve or reject: commit: %w", err)
	}

	outcome := ports.OutcomeFailed
	switch {
	case rows > 0:
		outcome = ports.OutcomeApplied
	case !changed:
		outcome = ports.OutcomeNoOp
	}

	s.logger.Info().
		Str("status", status.String()).
		Int("timesheets", len(entries)).
		Int64("rows", rows).
		Str("outcome", outcome.String()).
		Msg("timesheet status transition")

	return outcome, nil
}

// GetTimesheetsByStatus summarises the manager's reportees' entries with
// the given status per user and day.
func (s *TimesheetService) GetTimesheetsByStatus(ctx context.Context, managerID string, status domain.TimesheetStatus) ([]ports.SubmittedRequest, error) {
	reporteeIDs, err := s.reporteeIDs(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("timesheets by status: %w", err)
	}
	if len(reporteeIDs) == 0 {
		return []ports.SubmittedRequest{}, nil
	}

	grouped, err := s.timesheets.GetTimesheetsOfUsersByStatus(ctx, reporteeIDs, status)
	if err != nil {
		return nil, fmt.Errorf("timesheets by status: %w", err)
	}

	userIDs := make([]string, 0, len(grouped))
	for id := range grouped {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	requests := make([]ports.SubmittedRequest, 0)
	for _, userID := range userIDs {
		entries := append([]domain.TimesheetEntry(nil), grouped[userID]...)
		sortEntries(entries)

		var current *ports.SubmittedRequest
		for _, e := range entries {
			if current == nil || !domain.SameDay(current.TimesheetDate, e.Date) {
				requests = append(requests, ports.SubmittedRequest{
					UserID:        userID,
					TimesheetDate: domain.DateOf(e.Date),
					Status:        e.Status,
				})
				current = &requests[len(requests)-1]
			}
			current.TotalHours += e.Hours
			current.TimesheetIDs = append(current.TimesheetIDs, e.ID)
			if !contains(current.ProjectTitles, e.ProjectTitle) {
				current.ProjectTitles = append(current.ProjectTitles, e.ProjectTitle)
			}
		}
	}
	return requests, nil
}

// GetSubmittedTimesheetsByIDs returns the submitted entries of the
// manager's reportees whose id is listed. No match yields an empty slice.
func (s *TimesheetService) GetSubmittedTimesheetsByIDs(ctx context.Context, managerID string, timesheetIDs []string) ([]domain.TimesheetEntry, error) {
	if len(timesheetIDs) == 0 {
		return []domain.TimesheetEntry{}, nil
	}
	reporteeIDs, err := s.reporteeIDs(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("submitted timesheets: %w", err)
	}
	if len(reporteeIDs) == 0 {
		return []domain.TimesheetEntry{}, nil
	}

	submitted, err := s.timesheets.GetSubmittedTimesheetsOfUsers(ctx, reporteeIDs)
	if err != nil {
		return nil, fmt.Errorf("submitted timesheets: %w", err)
	}

	wanted := make(map[string]struct{}, len(timesheetIDs))
	for _, id := range timesheetIDs {
		wanted[id] = struct{}{}
	}
	matched := make([]domain.TimesheetEntry, 0, len(timesheetIDs))
	for _, e := range submitted {
		if _, ok := wanted[e.ID]; ok {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (s *TimesheetService) reporteeIDs(ctx context.Context, managerID string) ([]string, error) {
	if managerID == "" {
		return nil, fmt.Errorf("%w: manager is required", domain.ErrInvalidArgument)
	}
	reportees, err := s.directory.ListDirectReports(ports.WithFreshDirectory(ctx), managerID, "")
	if err != nil {
		return nil, fmt.Errorf("direct reports: %w", err)
	}
	ids := make([]string, 0, len(reportees))
	for _, r := range reportees {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

type entryKey struct {
	date   time.Time
	taskID string
}

func keyOf(date time.Time, taskID string) entryKey {
	return entryKey{date: domain.DateOf(date), taskID: taskID}
}

// span returns the earliest and latest of first and dates.
func span(first time.Time, dates []time.Time) (time.Time, time.Time) {
	start, end := domain.DateOf(first), domain.DateOf(first)
	for _, d := range dates {
		d = domain.DateOf(d)
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	return start, end
}

// isoWeek returns the Monday and Sunday of the ISO week containing day.
func isoWeek(day time.Time) (time.Time, time.Time) {
	day = domain.DateOf(day)
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := day.AddDate(0, 0, -(wd - 1))
	return monday, monday.AddDate(0, 0, 6)
}

func assignmentRemoved(projects []domain.Project, e domain.TimesheetEntry, userID string) bool {
	for i := range projects {
		p := &projects[i]
		for j := range p.Tasks {
			if p.Tasks[j].ID != e.TaskID {
				continue
			}
			if _, ok := p.MemberOf(userID); !ok {
				return true
			}
			return p.Tasks[j].IsRemoved
		}
	}
	return false
}

func assignedTask(projects []domain.Project, userID, taskID string, day time.Time) (*domain.Project, *domain.Task, bool) {
	for i := range projects {
		p := &projects[i]
		if !p.ActiveOn(day) {
			continue
		}
		member, ok := p.MemberOf(userID)
		if !ok {
			continue
		}
		for j := range p.Tasks {
			t := &p.Tasks[j]
			if t.ID == taskID && t.ActiveOn(day) && t.AssignedTo(member) {
				return p, t, true
			}
		}
	}
	return nil, nil, false
}

func sortEntries(entries []domain.TimesheetEntry) {
	sort.SliceStable(entries, func(a, b int) bool {
		if !entries[a].Date.Equal(entries[b].Date) {
			return entries[a].Date.Before(entries[b].Date)
		}
		return entries[a].TaskTitle < entries[b].TaskTitle
	})
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
