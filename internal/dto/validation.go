package dto

import "github.com/peoplehub/hr-access-api/internal/models"

// ApproveValidationRequest carries the optional approval note.
type ApproveValidationRequest struct {
	Note string `json:"note"`
}

// RejectValidationRequest carries the mandatory rejection note.
type RejectValidationRequest struct {
	Note string `json:"note" validate:"required"`
}

// InboxItem is one pending validation awaiting the acting user, joined with
// request context for display.
type InboxItem struct {
	Validation models.ValidationRecord `json:"validation"`
	Reference  string                  `json:"reference"`
	EmployeeID string                  `json:"employee_id"`
}
