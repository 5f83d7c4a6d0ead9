package handler

import (
	"fmt"
	"time"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/domain"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/core/ports"
)

func parseDate(field, value string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date formatted YYYY-MM-DD", domain.ErrInvalidArgument, field)
	}
	return d, nil
}

func parseDates(field string, values []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := parseDate(field, v)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// uniqueDates drops repeated days, keeping the first occurrence.
func uniqueDates(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = domain.DateOf(d)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}

func toSaveInput(userID string, req saveTimesheetsRequest, now time.Time) (ports.SaveTimesheetsInput, error) {
	in := ports.SaveTimesheetsInput{
		UserID:  userID,
		Submit:  req.Submit,
		Now:     now,
		Entries: make([]ports.TimesheetInput, 0, len(req.Entries)),
	}
	for i, e := range req.Entries {
		d, err := parseDate(fmt.Sprintf("entries[%d].date", i), e.Date)
		if err != nil {
			return ports.SaveTimesheetsInput{}, err
		}
		in.Entries = append(in.Entries, ports.TimesheetInput{Date: d, TaskID: e.TaskID, Hours: e.Hours})
	}
	return in, nil
}

func toTimesheetResponse(e domain.TimesheetEntry) timesheetResponse {
	return timesheetResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		TaskID:          e.TaskID,
		TaskTitle:       e.TaskTitle,
		ProjectID:       e.ProjectID,
		ProjectTitle:    e.ProjectTitle,
		Date:            e.Date.Format(time.DateOnly),
		Hours:           e.Hours,
		Status:          e.Status.String(),
		ManagerComments: e.ManagerComments,
		SubmittedOn:     e.SubmittedOn,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toTimesheetResponses(entries []domain.TimesheetEntry) []timesheetResponse {
	out := make([]timesheetResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toTimesheetResponse(e))
	}
	return out
}

func toDayResponses(days []ports.DayTimesheet) []dayTimesheetResponse {
	out := make([]dayTimesheetResponse, 0, len(days))
	for _, d := range days {
		tasks := make([]taskTimesheetResponse, 0, len(d.Tasks))
		for _, t := range d.Tasks {
			tasks = append(tasks, taskTimesheetResponse{
				TimesheetID:  t.TimesheetID,
				TaskID:       t.TaskID,
				TaskTitle:    t.TaskTitle,
				ProjectID:    t.ProjectID,
				ProjectTitle: t.ProjectTitle,
				Hours:        t.Hours,
				Status:       t.Status.String(),
				IsBillable:   t.IsBillable,
			})
		}
		out = append(out, dayTimesheetResponse{Date: d.Date.Format(time.DateOnly), Tasks: tasks})
	}
	return out
}

func toSubmittedResponses(requests []ports.SubmittedRequest) []submittedRequestResponse {
	out := make([]submittedRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, submittedRequestResponse{
			UserID:        r.UserID,
			TimesheetDate: r.TimesheetDate.Format(time.DateOnly),
			Status:        r.Status.String(),
			TotalHours:    r.TotalHours,
			ProjectTitles: r.ProjectTitles,
			TimesheetIDs:  r.TimesheetIDs,
		})
	}
	return out
}
