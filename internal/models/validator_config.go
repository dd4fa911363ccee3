package models

import "time"

// ValidatorKind discriminates the two validator configuration shapes.
type ValidatorKind string

const (
	ValidatorKindSpecificUser       ValidatorKind = "SPECIFIC_USER"
	ValidatorKindDepartmentManagers ValidatorKind = "DEPARTMENT_MANAGER_GROUP"
)

// ValidatorConfiguration declares who must validate access requests for a
// system. Exactly one of UserID / DepartmentID is set, driven by Kind; the
// shape is enforced at write time. Configurations are soft-disabled via the
// Active flag so spawned validations keep their back-reference.
type ValidatorConfiguration struct {
	ID           string        `db:"id" json:"id"`
	SystemID     string        `db:"system_id" json:"system_id"`
	Kind         ValidatorKind `db:"kind" json:"kind"`
	UserID       *string       `db:"user_id" json:"user_id,omitempty"`
	DepartmentID *string       `db:"department_id" json:"department_id,omitempty"`
	Rank         int           `db:"rank" json:"rank"`
	Required     bool          `db:"required" json:"required"`
	Active       bool          `db:"active" json:"active"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}
