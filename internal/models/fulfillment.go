package models

import "time"

// FulfillmentTaskState tracks implementation task progress.
type FulfillmentTaskState string

const (
	FulfillmentTaskOpen FulfillmentTaskState = "OPEN"
	FulfillmentTaskDone FulfillmentTaskState = "DONE"
)

// FulfillmentTask is one "grant access in system X" work item created when a
// request reaches full approval. Tasks are routed to a role pool, never to a
// specific person; whoever holds the role may pick one up.
type FulfillmentTask struct {
	ID            string               `db:"id" json:"id"`
	RequestID     string               `db:"request_id" json:"request_id"`
	SystemID      string               `db:"system_id" json:"system_id"`
	AccessLevelID string               `db:"access_level_id" json:"access_level_id"`
	AssignedRole  UserRole             `db:"assigned_role" json:"assigned_role"`
	State         FulfillmentTaskState `db:"state" json:"state"`
	CompletedBy   *string              `db:"completed_by" json:"completed_by,omitempty"`
	CompletedAt   *time.Time           `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
}
