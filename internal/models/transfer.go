package models

import "time"

// TransferDecision is one department's verdict on a single system access
// item during a mobility transfer.
type TransferDecision string

const (
	DecisionKeep   TransferDecision = "KEEP"
	DecisionAdd    TransferDecision = "ADD"
	DecisionModify TransferDecision = "MODIFY"
	DecisionRemove TransferDecision = "REMOVE"
)

// TransferItem pairs the old and new department decisions for one of the
// employee's current (or proposed) system accesses.
type TransferItem struct {
	SystemID      string           `json:"system_id"`
	AccessLevelID string           `json:"access_level_id"`
	OldDecision   TransferDecision `json:"old_decision"`
	NewDecision   TransferDecision `json:"new_decision"`
}

// TransferOutcome is the combined verdict for one item.
type TransferOutcome struct {
	SystemID      string           `json:"system_id"`
	AccessLevelID string           `json:"access_level_id"`
	Final         TransferDecision `json:"final"`
}

// Transfer records a departmental mobility event. Only items whose combined
// decision is ADD or MODIFY spawn an access request.
type Transfer struct {
	ID              string    `db:"id" json:"id"`
	EmployeeID      string    `db:"employee_id" json:"employee_id"`
	FromDepartment  string    `db:"from_department" json:"from_department"`
	ToDepartment    string    `db:"to_department" json:"to_department"`
	AccessRequestID *string   `db:"access_request_id" json:"access_request_id,omitempty"`
	CreatedBy       string    `db:"created_by" json:"created_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
