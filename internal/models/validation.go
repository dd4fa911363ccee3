package models

import (
	"time"

	"github.com/lib/pq"
)

// ValidationKind tells whether a record awaits a single user or any member
// of a manager group.
type ValidationKind string

const (
	ValidationKindIndividual ValidationKind = "INDIVIDUAL"
	ValidationKindGroup      ValidationKind = "GROUP"
)

// ValidationState is the per-record state machine. PENDING moves to exactly
// one of APPROVED or REJECTED; both are terminal.
type ValidationState string

const (
	ValidationStatePending  ValidationState = "PENDING"
	ValidationStateApproved ValidationState = "APPROVED"
	ValidationStateRejected ValidationState = "REJECTED"
)

// ValidationRecord is one approval checkpoint spawned from a validator
// configuration for a specific request and system.
//
// GroupSnapshot freezes the eligible user ids at spawn time. Authorization
// is a membership test against the snapshot, never a re-resolution: a
// manager removed from the department afterwards keeps the ability to
// resolve records they were already part of.
type ValidationRecord struct {
	ID                string          `db:"id" json:"id"`
	RequestID         string          `db:"request_id" json:"request_id"`
	SystemID          string          `db:"system_id" json:"system_id"`
	ConfigID          string          `db:"config_id" json:"config_id"`
	Kind              ValidationKind  `db:"kind" json:"kind"`
	State             ValidationState `db:"state" json:"state"`
	RepresentativeID  string          `db:"representative_id" json:"representative_id"`
	GroupSnapshot     pq.StringArray  `db:"group_snapshot" json:"group_snapshot,omitempty"`
	ResolvedBy        *string         `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt        *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolutionNote    *string         `db:"resolution_note" json:"resolution_note,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// CanResolve reports whether the user may approve or reject this record.
func (v *ValidationRecord) CanResolve(userID string) bool {
	if v.State != ValidationStatePending {
		return false
	}
	switch v.Kind {
	case ValidationKindIndividual:
		return v.RepresentativeID == userID
	case ValidationKindGroup:
		for _, member := range v.GroupSnapshot {
			if member == userID {
				return true
			}
		}
	}
	return false
}

// Recipients returns every user that should be notified about this record.
func (v *ValidationRecord) Recipients() []string {
	if v.Kind == ValidationKindGroup && len(v.GroupSnapshot) > 0 {
		return append([]string(nil), v.GroupSnapshot...)
	}
	return []string{v.RepresentativeID}
}
