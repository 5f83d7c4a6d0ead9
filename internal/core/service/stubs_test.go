package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub timesheet repository
// ---------------------------------------------------------------------------

type stubTimesheetRepo struct {
	entries []domain.TimesheetEntry

	getErr    error  // if set, every read returns this error
	commitErr error  // if set, Commit returns this error
	rows      *int64 // if set, Commit reports this many rows instead of the real count

	batches []*stubBatch
}

func (r *stubTimesheetRepo) GetTimesheets(_ context.Context, userID string, start, end time.Time) ([]domain.TimesheetEntry, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	var out []domain.TimesheetEntry
	for _, e := range r.entries {
		if e.UserID == userID && !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubTimesheetRepo) GetTimesheetsOfUsersByStatus(_ context.Context, userIDs []string, status domain.TimesheetStatus) (map[string][]domain.TimesheetEntry, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	out := make(map[string][]domain.TimesheetEntry)
	for _, e := range r.entries {
		if e.Status == status && containsID(userIDs, e.UserID) {
			out[e.UserID] = append(out[e.UserID], e)
		}
	}
	return out, nil
}

func (r *stubTimesheetRepo) GetSubmittedTimesheetsOfUsers(_ context.Context, userIDs []string) ([]domain.TimesheetEntry, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	var out []domain.TimesheetEntry
	for _, e := range r.entries {
		if e.Status == domain.StatusSubmitted && containsID(userIDs, e.UserID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubTimesheetRepo) GetTimesheetsOfProject(_ context.Context, projectID string, start, end time.Time) ([]domain.TimesheetEntry, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	var out []domain.TimesheetEntry
	for _, e := range r.entries {
		if e.ProjectID == projectID && !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubTimesheetRepo) NewBatch() ports.TimesheetBatch {
	b := &stubBatch{repo: r}
	r.batches = append(r.batches, b)
	return b
}

func (r *stubTimesheetRepo) lastBatch() *stubBatch {
	if len(r.batches) == 0 {
		return nil
	}
	return r.batches[len(r.batches)-1]
}

type stubBatch struct {
	repo      *stubTimesheetRepo
	added     []domain.TimesheetEntry
	updated   []domain.TimesheetEntry
	committed bool
}

func (b *stubBatch) Add(entry domain.TimesheetEntry) { b.added = append(b.added, entry) }

func (b *stubBatch) Update(entries []domain.TimesheetEntry) {
	b.updated = append(b.updated, entries...)
}

// Commit mirrors the real stores: only rows that actually change count.
func (b *stubBatch) Commit(_ context.Context) (int64, error) {
	b.committed = true
	if b.repo.commitErr != nil {
		return 0, b.repo.commitErr
	}
	var rows int64
	b.repo.entries = append(b.repo.entries, b.added...)
	rows += int64(len(b.added))
	for _, u := range b.updated {
		for i := range b.repo.entries {
			if b.repo.entries[i].ID == u.ID && !sameEntry(b.repo.entries[i], u) {
				b.repo.entries[i] = u
				rows++
			}
		}
	}
	if b.repo.rows != nil {
		return *b.repo.rows, nil
	}
	return rows, nil
}

func sameEntry(a, b domain.TimesheetEntry) bool {
	return a.Hours == b.Hours && a.Status == b.Status && a.ManagerComments == b.ManagerComments && a.UpdatedAt.Equal(b.UpdatedAt)
}

// ---------------------------------------------------------------------------
// In-memory stub project repository
// ---------------------------------------------------------------------------

type stubProjectRepo struct {
	projects map[string]*domain.Project
	err      error
}

func newStubProjectRepo(projects ...domain.Project) *stubProjectRepo {
	r := &stubProjectRepo{projects: make(map[string]*domain.Project)}
	for i := range projects {
		p := projects[i]
		r.projects[p.ID] = &p
	}
	return r
}

func (r *stubProjectRepo) GetActiveProjects(_ context.Context, userID string, start, end time.Time) ([]domain.Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Project
	for _, p := range r.projects {
		if _, ok := p.MemberOf(userID); ok && p.Overlaps(start, end) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProjectRepo) ListByUser(_ context.Context, userID string) ([]domain.Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Project
	for _, p := range r.projects {
		if _, ok := p.MemberOf(userID); ok || p.CreatedBy == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProjectRepo) Create(_ context.Context, p *domain.Project) error {
	if r.err != nil {
		return r.err
	}
	clone := *p
	r.projects[p.ID] = &clone
	return nil
}

func (r *stubProjectRepo) Update(_ context.Context, p *domain.Project) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.projects[p.ID]; !ok {
		return domain.ErrProjectNotFound
	}
	clone := *p
	r.projects[p.ID] = &clone
	return nil
}

// ---------------------------------------------------------------------------
// Stub identity directory
// ---------------------------------------------------------------------------

type stubDirectory struct {
	reports    map[string][]domain.Profile // manager id -> direct reports
	managers   map[string]domain.Profile   // user id -> manager
	users      map[string]domain.Profile
	err        error
	lastSearch string
	lastFresh  bool
}

func (d *stubDirectory) ListDirectReports(ctx context.Context, userID, search string) ([]domain.Profile, error) {
	d.lastSearch = search
	d.lastFresh = ports.FreshDirectory(ctx)
	if d.err != nil {
		return nil, d.err
	}
	return d.reports[userID], nil
}

func (d *stubDirectory) GetManager(_ context.Context, userID string) (*domain.Profile, error) {
	if d.err != nil {
		return nil, d.err
	}
	m, ok := d.managers[userID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (d *stubDirectory) GetUsers(_ context.Context, ids []string) (map[string]domain.Profile, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := make(map[string]domain.Profile)
	for _, id := range ids {
		if p, ok := d.users[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func int64Ptr(v int64) *int64 { return &v }

// apolloProject is active during 2021. u1 is a billable member and u2 a
// non-billable one; "Private" belongs to u2 only and "Old" was removed.
func apolloProject() domain.Project {
	return domain.Project{
		ID:               "p1",
		Title:            "Apollo",
		BillableHours:    100,
		NonBillableHours: 20,
		StartDate:        day(2021, 1, 1),
		EndDate:          day(2021, 12, 31),
		Members: []domain.Member{
			{ID: "m1", ProjectID: "p1", UserID: "u1", IsBillable: true},
			{ID: "m2", ProjectID: "p1", UserID: "u2"},
		},
		Tasks: []domain.Task{
			{ID: "t1", ProjectID: "p1", Title: "Design"},
			{ID: "t2", ProjectID: "p1", Title: "Build"},
			{ID: "t3", ProjectID: "p1", Title: "Private", MemberID: "m2"},
			{ID: "t4", ProjectID: "p1", Title: "Old", IsRemoved: true},
		},
	}
}

func entry(id, userID, taskID, taskTitle string, date time.Time, hours float64, status domain.TimesheetStatus) domain.TimesheetEntry {
	return domain.TimesheetEntry{
		ID:           id,
		UserID:       userID,
		TaskID:       taskID,
		TaskTitle:    taskTitle,
		ProjectID:    "p1",
		ProjectTitle: "Apollo",
		Date:         date,
		Hours:        hours,
		Status:       status,
	}
}

func newTestTimesheetService(repo *stubTimesheetRepo, projects *stubProjectRepo, dir *stubDirectory) *TimesheetService {
	freeze, _ := domain.NewFreezePolicy(12)
	svc := NewTimesheetService(repo, projects, dir, freeze, 44, discardLogger)
	svc.newID = sequentialIDs("ts")
	svc.now = func() time.Time { return time.Date(2021, 3, 5, 9, 0, 0, 0, time.UTC) }
	return svc
}
