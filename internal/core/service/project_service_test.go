package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

func newTestProjectService(projects *stubProjectRepo, timesheets *stubTimesheetRepo) *ProjectService {
	svc := NewProjectService(projects, timesheets, discardLogger)
	svc.newID = sequentialIDs("pr")
	return svc
}

func TestProjectService_Create_Success(t *testing.T) {
	repo := newStubProjectRepo()
	svc := newTestProjectService(repo, &stubTimesheetRepo{})

	p, err := svc.CreateProject(context.Background(), ports.CreateProjectInput{
		Title:         "Apollo",
		ClientName:    "NASA",
		BillableHours: 100,
		StartDate:     day(2021, 1, 1),
		EndDate:       day(2021, 6, 30),
		Members: []ports.MemberInput{
			{UserID: "u1", IsBillable: true},
			{UserID: "u1"},
			{UserID: "u2"},
		},
		Tasks:     []ports.TaskInput{{Title: "Design"}, {Title: "Build", StartDate: day(2021, 2, 1), EndDate: day(2021, 3, 1)}},
		CreatedBy: "mgr",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.projects[p.ID]; !ok {
		t.Fatal("project must be stored")
	}
	if len(p.Members) != 2 {
		t.Errorf("duplicate members must collapse, got %d", len(p.Members))
	}
	if len(p.Tasks) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(p.Tasks))
	}
	for _, task := range p.Tasks {
		if task.ProjectID != p.ID {
			t.Errorf("task %q not linked to project", task.Title)
		}
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt must be set")
	}
}

func TestProjectService_Create_ValidationError(t *testing.T) {
	repo := newStubProjectRepo()
	svc := newTestProjectService(repo, &stubTimesheetRepo{})

	_, err := svc.CreateProject(context.Background(), ports.CreateProjectInput{
		Title:     "Apollo",
		StartDate: day(2021, 6, 1),
		EndDate:   day(2021, 1, 1),
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if len(repo.projects) != 0 {
		t.Error("invalid project must not be stored")
	}
}

func TestProjectService_Update_NotFound(t *testing.T) {
	svc := newTestProjectService(newStubProjectRepo(), &stubTimesheetRepo{})

	_, err := svc.UpdateProject(context.Background(), ports.UpdateProjectInput{ProjectID: "missing", Title: "x"})
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestProjectService_Update_ReplacesAttributes(t *testing.T) {
	repo := newStubProjectRepo(apolloProject())
	svc := newTestProjectService(repo, &stubTimesheetRepo{})

	p, err := svc.UpdateProject(context.Background(), ports.UpdateProjectInput{
		ProjectID:     "p1",
		Title:         "Apollo II",
		BillableHours: 200,
		StartDate:     day(2021, 1, 1),
		EndDate:       day(2022, 1, 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != "Apollo II" || repo.projects["p1"].BillableHours != 200 {
		t.Errorf("update not applied: %+v", repo.projects["p1"])
	}
	if len(p.Tasks) != 4 {
		t.Error("tasks must survive an attribute update")
	}
}

func TestProjectService_List_EmptyIsNonNil(t *testing.T) {
	svc := newTestProjectService(newStubProjectRepo(), &stubTimesheetRepo{})

	projects, err := svc.ListProjects(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projects == nil {
		t.Error("expected empty non-nil slice")
	}
}

func TestProjectService_Utilization(t *testing.T) {
	timesheets := &stubTimesheetRepo{entries: []domain.TimesheetEntry{
		entry("e1", "u1", "t1", "Design", day(2021, 3, 1), 8, domain.StatusApproved),
		entry("e2", "u1", "t2", "Build", day(2021, 3, 2), 4, domain.StatusSubmitted),
		entry("e3", "u2", "t3", "Private", day(2021, 3, 2), 6, domain.StatusApproved),
		entry("e4", "u1", "t1", "Design", day(2021, 3, 3), 8, domain.StatusNone),
		entry("e5", "u2", "t3", "Private", day(2021, 3, 4), 2, domain.StatusRejected),
	}}
	svc := newTestProjectService(newStubProjectRepo(apolloProject()), timesheets)

	u, err := svc.GetProjectUtilization(context.Background(), "p1", day(2021, 3, 1), day(2021, 3, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.BillableHours != 12 {
		t.Errorf("BillableHours: want 12, got %v", u.BillableHours)
	}
	if u.NonBillableHours != 6 {
		t.Errorf("NonBillableHours: want 6, got %v", u.NonBillableHours)
	}
	if u.NotUtilizedHours != 102 {
		t.Errorf("NotUtilizedHours: want 102, got %v", u.NotUtilizedHours)
	}
	if math.Abs(u.Utilization-0.15) > 1e-9 {
		t.Errorf("Utilization: want 0.15, got %v", u.Utilization)
	}
}

func TestProjectService_Utilization_ZeroBudget(t *testing.T) {
	p := apolloProject()
	p.BillableHours, p.NonBillableHours = 0, 0
	timesheets := &stubTimesheetRepo{entries: []domain.TimesheetEntry{
		entry("e1", "u1", "t1", "Design", day(2021, 3, 1), 8, domain.StatusApproved),
	}}
	svc := newTestProjectService(newStubProjectRepo(p), timesheets)

	u, err := svc.GetProjectUtilization(context.Background(), "p1", day(2021, 3, 1), day(2021, 3, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Utilization != 0 {
		t.Errorf("Utilization: want 0 for a zero budget, got %v", u.Utilization)
	}
	if u.NotUtilizedHours != -8 {
		t.Errorf("NotUtilizedHours: want -8, got %v", u.NotUtilizedHours)
	}
}

func TestProjectService_Utilization_NotFound(t *testing.T) {
	svc := newTestProjectService(newStubProjectRepo(), &stubTimesheetRepo{})

	_, err := svc.GetProjectUtilization(context.Background(), "missing", day(2021, 3, 1), day(2021, 3, 31))
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestProjectService_AddMembers_RestoresRemovedMember(t *testing.T) {
	project := apolloProject()
	project.Members[1].IsRemoved = true
	repo := newStubProjectRepo(project)
	svc := newTestProjectService(repo, &stubTimesheetRepo{})

	p, err := svc.AddMembers(context.Background(), "p1", []ports.MemberInput{
		{UserID: "u1"},
		{UserID: "u2", IsBillable: true},
		{UserID: "u3"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Members) != 3 {
		t.Fatalf("expected 3 member rows, got %+v", p.Members)
	}
	if m := p.Members[1]; m.ID != "m2" || m.IsRemoved || !m.IsBillable {
		t.Errorf("removed member must be restored in place, got %+v", m)
	}
	if !p.Members[0].IsBillable {
		t.Error("existing member must keep its row")
	}
	if m := p.Members[2]; m.UserID != "u3" || m.ProjectID != "p1" || m.ID == "" {
		t.Errorf("unexpected new member %+v", m)
	}
	if len(repo.projects["p1"].Members) != 3 {
		t.Error("members must be stored")
	}
}

func TestProjectService_AddMembers_Validation(t *testing.T) {
	svc := newTestProjectService(newStubProjectRepo(apolloProject()), &stubTimesheetRepo{})

	if _, err := svc.AddMembers(context.Background(), "p1", nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for no members, got %v", err)
	}
	if _, err := svc.AddMembers(context.Background(), "p1", []ports.MemberInput{{UserID: ""}}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for blank user, got %v", err)
	}
	if _, err := svc.AddMembers(context.Background(), "missing", []ports.MemberInput{{UserID: "u9"}}); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestProjectService_RemoveMember_FlagsAndBlocksLogging(t *testing.T) {
	projects := newStubProjectRepo(apolloProject())
	timesheets := &stubTimesheetRepo{}
	svc := newTestProjectService(projects, timesheets)

	p, err := svc.RemoveMember(context.Background(), "p1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Members) != 2 || !p.Members[0].IsRemoved {
		t.Fatalf("member must be flagged, not deleted: %+v", p.Members)
	}

	_, err = svc.RemoveMember(context.Background(), "p1", "u1")
	if !errors.Is(err, domain.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound on second removal, got %v", err)
	}

	ts := newTestTimesheetService(timesheets, projects, &stubDirectory{})
	_, err = ts.SaveTimesheets(context.Background(), saveInput(false,
		ports.TimesheetInput{Date: day(2021, 3, 1), TaskID: "t1", Hours: 2},
	))
	if !errors.Is(err, domain.ErrTaskNotAssigned) {
		t.Errorf("removed member must not log hours, got %v", err)
	}
}

func TestProjectService_AddTasks_MapsMemberUser(t *testing.T) {
	repo := newStubProjectRepo(apolloProject())
	svc := newTestProjectService(repo, &stubTimesheetRepo{})

	p, err := svc.AddTasks(context.Background(), "p1", []ports.TaskInput{
		{Title: "Review", MemberUserID: "u1", StartDate: day(2021, 2, 1), EndDate: day(2021, 2, 28)},
		{Title: "Support"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Tasks) != 6 {
		t.Fatalf("expected 6 tasks, got %d", len(p.Tasks))
	}
	review := p.Tasks[4]
	if review.MemberID != "m1" || review.ProjectID != "p1" || !review.EndDate.Equal(day(2021, 2, 28)) {
		t.Errorf("unexpected task %+v", review)
	}
	if p.Tasks[5].MemberID != "" {
		t.Error("task without a member user is open to all members")
	}
	if len(repo.projects["p1"].Tasks) != 6 {
		t.Error("tasks must be stored")
	}
}

func TestProjectService_AddTasks_Validation(t *testing.T) {
	project := apolloProject()
	project.Members[1].IsRemoved = true
	repo := newStubProjectRepo(project)
	svc := newTestProjectService(repo, &stubTimesheetRepo{})

	cases := map[string][]ports.TaskInput{
		"empty":          nil,
		"unknown member": {{Title: "Review", MemberUserID: "u9"}},
		"removed member": {{Title: "Review", MemberUserID: "u2"}},
		"outside dates":  {{Title: "Late", StartDate: day(2021, 12, 1), EndDate: day(2022, 1, 31)}},
	}
	for name, tasks := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AddTasks(context.Background(), "p1", tasks)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if len(repo.projects["p1"].Tasks) != 4 {
				t.Error("rejected tasks must not be stored")
			}
		})
	}
}

func TestProjectService_RemoveTask(t *testing.T) {
	repo := newStubProjectRepo(apolloProject())
	svc := newTestProjectService(repo, &stubTimesheetRepo{})

	p, err := svc.RemoveTask(context.Background(), "p1", "t2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Tasks) != 4 || !p.Tasks[1].IsRemoved {
		t.Fatalf("task must be flagged, not deleted: %+v", p.Tasks)
	}
	if !repo.projects["p1"].Tasks[1].IsRemoved {
		t.Error("removal must be stored")
	}

	for _, id := range []string{"t4", "nope"} {
		if _, err := svc.RemoveTask(context.Background(), "p1", id); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Errorf("%s: expected ErrTaskNotFound, got %v", id, err)
		}
	}
}
