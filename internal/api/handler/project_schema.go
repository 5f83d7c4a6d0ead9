package handler

import "time"

type memberRequest struct {
	UserID     string `json:"userId"     validate:"required"`
	IsBillable bool   `json:"isBillable"`
}

type taskRequest struct {
	Title        string `json:"title"        validate:"required,max=200"`
	MemberUserID string `json:"memberUserId"`
	StartDate    string `json:"startDate"    validate:"omitempty,datetime=2006-01-02"`
	EndDate      string `json:"endDate"      validate:"omitempty,datetime=2006-01-02"`
}

type addMembersRequest struct {
	Members []memberRequest `json:"members" validate:"required,min=1,dive"`
}

type addTasksRequest struct {
	Tasks []taskRequest `json:"tasks" validate:"required,min=1,dive"`
}

type createProjectRequest struct {
	Title            string          `json:"title"            validate:"required,max=200"`
	ClientName       string          `json:"clientName"       validate:"required,max=200"`
	BillableHours    int             `json:"billableHours"    validate:"gte=0"`
	NonBillableHours int             `json:"nonBillableHours" validate:"gte=0"`
	StartDate        string          `json:"startDate"        validate:"required,datetime=2006-01-02"`
	EndDate          string          `json:"endDate"          validate:"required,datetime=2006-01-02"`
	Members          []memberRequest `json:"members"          validate:"dive"`
	Tasks            []taskRequest   `json:"tasks"            validate:"dive"`
}

type updateProjectRequest struct {
	Title            string `json:"title"            validate:"required,max=200"`
	ClientName       string `json:"clientName"       validate:"required,max=200"`
	BillableHours    int    `json:"billableHours"    validate:"gte=0"`
	NonBillableHours int    `json:"nonBillableHours" validate:"gte=0"`
	StartDate        string `json:"startDate"        validate:"required,datetime=2006-01-02"`
	EndDate          string `json:"endDate"          validate:"required,datetime=2006-01-02"`
}

type memberResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	IsBillable bool   `json:"isBillable"`
	IsRemoved  bool   `json:"isRemoved"`
}

type taskResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	MemberID  string `json:"memberId,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	IsRemoved bool   `json:"isRemoved"`
}

type projectResponse struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	ClientName       string           `json:"clientName"`
	BillableHours    int              `json:"billableHours"`
	NonBillableHours int              `json:"nonBillableHours"`
	StartDate        string           `json:"startDate"`
	EndDate          string           `json:"endDate"`
	CreatedBy        string           `json:"createdBy"`
	CreatedAt        time.Time        `json:"createdAt"`
	Members          []memberResponse `json:"members"`
	Tasks            []taskResponse   `json:"tasks"`
}

type utilizationResponse struct {
	ProjectID        string  `json:"projectId"`
	Title            string  `json:"title"`
	StartDate        string  `json:"startDate"`
	EndDate          string  `json:"endDate"`
	BillableHours    float64 `json:"billableHours"`
	NonBillableHours float64 `json:"nonBillableHours"`
	NotUtilizedHours float64 `json:"notUtilizedHours"`
	Utilization      float64 `json:"utilization"`
}
