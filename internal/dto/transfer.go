package dto

import "github.com/peoplehub/hr-access-api/internal/models"

// TransferRequest submits a department mobility event with both
// departments' per-item decisions.
type TransferRequest struct {
	EmployeeID     string                `json:"employee_id" validate:"required"`
	FromDepartment string                `json:"from_department" validate:"required"`
	ToDepartment   string                `json:"to_department" validate:"required"`
	Justification  string                `json:"justification" validate:"required"`
	Items          []models.TransferItem `json:"items" validate:"required,min=1,dive"`
}

// TransferPreview returns the combined decision per item without creating
// anything.
type TransferPreview struct {
	Outcomes []models.TransferOutcome `json:"outcomes"`
}

// TransferResult reports the created transfer and, when any item resolved
// to ADD or MODIFY, the spawned access request.
type TransferResult struct {
	Transfer models.Transfer          `json:"transfer"`
	Request  *models.AccessRequest    `json:"request,omitempty"`
	Outcomes []models.TransferOutcome `json:"outcomes"`
}
