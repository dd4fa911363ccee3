package models

import "time"

// AccessRequestState is the aggregate lifecycle state. It is always derived
// from the owned validation records, except at creation and on fan-out
// failure.
type AccessRequestState string

const (
	RequestStatePending    AccessRequestState = "PENDING"
	RequestStateValidating AccessRequestState = "VALIDATING"
	RequestStateApproved   AccessRequestState = "APPROVED"
	RequestStateRejected   AccessRequestState = "REJECTED"
	RequestStateFinalized  AccessRequestState = "FINALIZED"
	RequestStateError      AccessRequestState = "ERROR"
)

// AccessRequest is the aggregate root for one employee's pending set of
// system access grants.
type AccessRequest struct {
	ID            string             `db:"id" json:"id"`
	Reference     string             `db:"reference" json:"reference"`
	RequesterID   string             `db:"requester_id" json:"requester_id"`
	EmployeeID    string             `db:"employee_id" json:"employee_id"`
	Justification string             `db:"justification" json:"justification"`
	State         AccessRequestState `db:"state" json:"state"`
	FailureReason *string            `db:"failure_reason" json:"failure_reason,omitempty"`
	CompletedAt   *time.Time         `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`

	Entries     []RequestedSystemAccess `db:"-" json:"entries,omitempty"`
	Validations []ValidationRecord      `db:"-" json:"validations,omitempty"`
}

// RequestedSystemAccess is one (system, access level) pair on a request.
// Immutable after creation except for the approval flag.
type RequestedSystemAccess struct {
	ID            string     `db:"id" json:"id"`
	RequestID     string     `db:"request_id" json:"request_id"`
	SystemID      string     `db:"system_id" json:"system_id"`
	AccessLevelID string     `db:"access_level_id" json:"access_level_id"`
	Approved      bool       `db:"approved" json:"approved"`
	ApprovedAt    *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// ValidationTally summarises record states for one request.
type ValidationTally struct {
	Total    int `db:"total"`
	Approved int `db:"approved"`
	Rejected int `db:"rejected"`
}

// AccessRequestFilter constrains listing queries.
type AccessRequestFilter struct {
	States      []AccessRequestState
	EmployeeID  string
	RequesterID string
	Limit       int
	Offset      int
}
