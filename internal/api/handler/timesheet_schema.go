package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type datesRequest struct {
	Dates []string `json:"dates" validate:"required,min=1,max=366,dive,datetime=2006-01-02"`
}

type duplicateRequest struct {
	SourceDate  string   `json:"sourceDate"  validate:"required,datetime=2006-01-02"`
	TargetDates []string `json:"targetDates" validate:"required,min=1,max=31,dive,datetime=2006-01-02"`
}

type saveEntryRequest struct {
	Date   string  `json:"date"   validate:"required,datetime=2006-01-02"`
	TaskID string  `json:"taskId" validate:"required"`
	Hours  float64 `json:"hours"  validate:"gte=0,lte=24"`
}

type saveTimesheetsRequest struct {
	Submit  bool               `json:"submit"`
	Entries []saveEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

type approvalItemRequest struct {
	TimesheetID     string `json:"timesheetId"     validate:"required"`
	ManagerComments string `json:"managerComments" validate:"max=500"`
}

type approvalRequest struct {
	Timesheets []approvalItemRequest `json:"timesheets" validate:"required,min=1,max=200,dive"`
}

// --- Response types ---
// Kept apart from domain types so the JSON contract does not follow
// internal changes.

type datesResponse struct {
	Dates []string `json:"dates"`
}

type timesheetResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	TaskID          string     `json:"taskId"`
	TaskTitle       string     `json:"taskTitle"`
	ProjectID       string     `json:"projectId"`
	ProjectTitle    string     `json:"projectTitle"`
	Date            string     `json:"date"`
	Hours           float64    `json:"hours"`
	Status          string     `json:"status"`
	ManagerComments string     `json:"managerComments,omitempty"`
	SubmittedOn     *time.Time `json:"submittedOn,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type taskTimesheetResponse struct {
	TimesheetID  string  `json:"timesheetId,omitempty"`
	TaskID       string  `json:"taskId"`
	TaskTitle    string  `json:"taskTitle"`
	ProjectID    string  `json:"projectId"`
	ProjectTitle string  `json:"projectTitle"`
	Hours        float64 `json:"hours"`
	Status       string  `json:"status"`
	IsBillable   bool    `json:"isBillable"`
}

type dayTimesheetResponse struct {
	Date  string                  `json:"date"`
	Tasks []taskTimesheetResponse `json:"tasks"`
}

type submittedRequestResponse struct {
	UserID        string   `json:"userId"`
	TimesheetDate string   `json:"timesheetDate"`
	Status        string   `json:"status"`
	TotalHours    float64  `json:"totalHours"`
	ProjectTitles []string `json:"projectTitles"`
	TimesheetIDs  []string `json:"timesheetIds"`
}

type approvalResponse struct {
	Outcome    string `json:"outcome"`
	Timesheets int    `json:"timesheets"`
}
