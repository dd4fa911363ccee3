package models

import "time"

// ChecklistKind separates onboarding from offboarding templates.
type ChecklistKind string

const (
	ChecklistOnboarding  ChecklistKind = "ONBOARDING"
	ChecklistOffboarding ChecklistKind = "OFFBOARDING"
)

// ChecklistState tracks a checklist instance.
type ChecklistState string

const (
	ChecklistOpen   ChecklistState = "OPEN"
	ChecklistClosed ChecklistState = "CLOSED"
)

// ChecklistTemplateItem is one templated task, routed to a role pool.
type ChecklistTemplateItem struct {
	ID           string        `db:"id" json:"id"`
	Kind         ChecklistKind `db:"kind" json:"kind"`
	Title        string        `db:"title" json:"title"`
	AssignedRole UserRole      `db:"assigned_role" json:"assigned_role"`
	Rank         int           `db:"rank" json:"rank"`
	Active       bool          `db:"active" json:"active"`
}

// Checklist is an instantiated template for one employee.
type Checklist struct {
	ID         string         `db:"id" json:"id"`
	EmployeeID string         `db:"employee_id" json:"employee_id"`
	Kind       ChecklistKind  `db:"kind" json:"kind"`
	State      ChecklistState `db:"state" json:"state"`
	ClosedAt   *time.Time     `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`

	Tasks []ChecklistTask `db:"-" json:"tasks,omitempty"`
}

// ChecklistTask is one instantiated item on a checklist.
type ChecklistTask struct {
	ID           string               `db:"id" json:"id"`
	ChecklistID  string               `db:"checklist_id" json:"checklist_id"`
	Title        string               `db:"title" json:"title"`
	AssignedRole UserRole             `db:"assigned_role" json:"assigned_role"`
	Rank         int                  `db:"rank" json:"rank"`
	State        FulfillmentTaskState `db:"state" json:"state"`
	CompletedBy  *string              `db:"completed_by" json:"completed_by,omitempty"`
	CompletedAt  *time.Time           `db:"completed_at" json:"completed_at,omitempty"`
}
