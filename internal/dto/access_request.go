package dto

import "github.com/peoplehub/hr-access-api/internal/models"

// RequestedAccessInput selects one system and level on a new request.
type RequestedAccessInput struct {
	SystemID      string `json:"system_id" validate:"required"`
	AccessLevelID string `json:"access_level_id" validate:"required"`
}

// CreateAccessRequest is the payload for opening an access request. The
// requesting user is taken from the authenticated claims, never from the
// body.
type CreateAccessRequest struct {
	EmployeeID    string                 `json:"employee_id" validate:"required"`
	Justification string                 `json:"justification" validate:"required"`
	Entries       []RequestedAccessInput `json:"entries" validate:"required,min=1,dive"`
}

// AccessRequestQuery mirrors supported listing filters.
type AccessRequestQuery struct {
	States     []models.AccessRequestState
	EmployeeID string
	Limit      int
	Offset     int
}

// AccessRequestDetail combines the aggregate with its children.
type AccessRequestDetail struct {
	Request     models.AccessRequest           `json:"request"`
	Entries     []models.RequestedSystemAccess `json:"entries"`
	Validations []models.ValidationRecord      `json:"validations"`
}
