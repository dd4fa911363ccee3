package dto

import "github.com/peoplehub/hr-access-api/internal/models"

// CreateChecklistRequest instantiates a template for an employee.
type CreateChecklistRequest struct {
	EmployeeID string               `json:"employee_id" validate:"required"`
	Kind       models.ChecklistKind `json:"kind" validate:"required"`
}
