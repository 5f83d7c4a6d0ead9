package handler

import (
	"fmt"
	"time"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

func toCreateProjectInput(createdBy string, req createProjectRequest) (ports.CreateProjectInput, error) {
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return ports.CreateProjectInput{}, err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return ports.CreateProjectInput{}, err
	}

	in := ports.CreateProjectInput{
		Title:            req.Title,
		ClientName:       req.ClientName,
		BillableHours:    req.BillableHours,
		NonBillableHours: req.NonBillableHours,
		StartDate:        start,
		EndDate:          end,
		CreatedBy:        createdBy,
		Members:          toMemberInputs(req.Members),
	}
	if in.Tasks, err = toTaskInputs(req.Tasks); err != nil {
		return ports.CreateProjectInput{}, err
	}
	return in, nil
}

func toMemberInputs(reqs []memberRequest) []ports.MemberInput {
	out := make([]ports.MemberInput, 0, len(reqs))
	for _, m := range reqs {
		out = append(out, ports.MemberInput{UserID: m.UserID, IsBillable: m.IsBillable})
	}
	return out
}

func toTaskInputs(reqs []taskRequest) ([]ports.TaskInput, error) {
	out := make([]ports.TaskInput, 0, len(reqs))
	for i, t := range reqs {
		task := ports.TaskInput{Title: t.Title, MemberUserID: t.MemberUserID}
		var err error
		if t.StartDate != "" {
			if task.StartDate, err = parseDate(fmt.Sprintf("tasks[%d].startDate", i), t.StartDate); err != nil {
				return nil, err
			}
		}
		if t.EndDate != "" {
			if task.EndDate, err = parseDate(fmt.Sprintf("tasks[%d].endDate", i), t.EndDate); err != nil {
				return nil, err
			}
		}
		out = append(out, task)
	}
	return out, nil
}

func toUpdateProjectInput(projectID string, req updateProjectRequest) (ports.UpdateProjectInput, error) {
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return ports.UpdateProjectInput{}, err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return ports.UpdateProjectInput{}, err
	}
	return ports.UpdateProjectInput{
		ProjectID:        projectID,
		Title:            req.Title,
		ClientName:       req.ClientName,
		BillableHours:    req.BillableHours,
		NonBillableHours: req.NonBillableHours,
		StartDate:        start,
		EndDate:          end,
	}, nil
}

func optionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func toProjectResponse(p domain.Project) projectResponse {
	resp := projectResponse{
		ID:               p.ID,
		Title:            p.Title,
		ClientName:       p.ClientName,
		BillableHours:    p.BillableHours,
		NonBillableHours: p.NonBillableHours,
		StartDate:        p.StartDate.Format(time.DateOnly),
		EndDate:          p.EndDate.Format(time.DateOnly),
		CreatedBy:        p.CreatedBy,
		CreatedAt:        p.CreatedAt,
		Members:          make([]memberResponse, 0, len(p.Members)),
		Tasks:            make([]taskResponse, 0, len(p.Tasks)),
	}
	for _, m := range p.Members {
		resp.Members = append(resp.Members, memberResponse{
			ID:         m.ID,
			UserID:     m.UserID,
			IsBillable: m.IsBillable,
			IsRemoved:  m.IsRemoved,
		})
	}
	for _, t := range p.Tasks {
		resp.Tasks = append(resp.Tasks, taskResponse{
			ID:        t.ID,
			Title:     t.Title,
			MemberID:  t.MemberID,
			StartDate: optionalDate(t.StartDate),
			EndDate:   optionalDate(t.EndDate),
			IsRemoved: t.IsRemoved,
		})
	}
	return resp
}

func toUtilizationResponse(u *ports.ProjectUtilization) utilizationResponse {
	return utilizationResponse{
		ProjectID:        u.ProjectID,
		Title:            u.Title,
		StartDate:        u.StartDate.Format(time.DateOnly),
		EndDate:          u.EndDate.Format(time.DateOnly),
		BillableHours:    u.BillableHours,
		NonBillableHours: u.NonBillableHours,
		NotUtilizedHours: u.NotUtilizedHours,
		Utilization:      u.Utilization,
	}
}
