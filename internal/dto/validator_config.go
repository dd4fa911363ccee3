package dto

import "github.com/peoplehub/hr-access-api/internal/models"

// WriteValidatorConfigRequest creates or updates a validator configuration.
// Shape rules (user XOR department, driven by kind) are enforced by the
// service before anything is persisted.
type WriteValidatorConfigRequest struct {
	Kind         models.ValidatorKind `json:"kind" validate:"required"`
	UserID       *string              `json:"user_id,omitempty"`
	DepartmentID *string              `json:"department_id,omitempty"`
	Rank         int                  `json:"rank"`
	Required     bool                 `json:"required"`
}
