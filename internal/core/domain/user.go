package domain

import "errors"

// ErrDirectoryUnavailable wraps failures of the identity directory.
var ErrDirectoryUnavailable = errors.New("identity directory unavailable")

const (
	RoleMember  = "member"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Profile is a user record as seen by the identity directory.
type Profile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail,omitempty"`
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
	JobTitle          string `json:"jobTitle,omitempty"`
}
