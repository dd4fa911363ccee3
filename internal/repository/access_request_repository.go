package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/peoplehub/hr-access-api/internal/models"
)

// AccessRequestRepository persists access request aggregates.
//
// Schema note: validation_records carries a unique index on
// (request_id, system_id, config_id) so the pre-insert existence check in
// CreateValidations is backed by a real constraint.
type AccessRequestRepository struct {
	db *sqlx.DB
}

// NewAccessRequestRepository constructs the repository.
func NewAccessRequestRepository(db *sqlx.DB) *AccessRequestRepository {
	return &AccessRequestRepository{db: db}
}

// Create inserts the request and its requested system entries in one
// transaction.
func (r *AccessRequestRepository) Create(ctx context.Context, request *models.AccessRequest, entries []models.RequestedSystemAccess) (err error) {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.State == "" {
		request.State = models.RequestStatePending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertRequest = `INSERT INTO access_requests
	(id, reference, requester_id, employee_id, justification, state, failure_reason, completed_at, created_at, updated_at)
	VALUES (:id, :reference, :requester_id, :employee_id, :justification, :state, :failure_reason, :completed_at, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertRequest, request); err != nil {
		return fmt.Errorf("create access request: %w", err)
	}

	const insertEntry = `INSERT INTO requested_system_accesses
	(id, request_id, system_id, access_level_id, approved, created_at)
	VALUES (:id, :request_id, :system_id, :access_level_id, :approved, :created_at)`
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].RequestID = request.ID
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, insertEntry, entries[i]); err != nil {
			return fmt.Errorf("create requested system access: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create request tx: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *AccessRequestRepository) GetByID(ctx context.Context, id string) (*models.AccessRequest, error) {
	const query = `SELECT id, reference, requester_id, employee_id, justification, state, failure_reason, completed_at, created_at, updated_at
	FROM access_requests WHERE id = $1`
	var request models.AccessRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// ListEntries returns the requested system accesses for a request.
func (r *AccessRequestRepository) ListEntries(ctx context.Context, requestID string) ([]models.RequestedSystemAccess, error) {
	const query = `SELECT id, request_id, system_id, access_level_id, approved, approved_at, created_at
	FROM requested_system_accesses WHERE request_id = $1 ORDER BY created_at ASC, id ASC`
	var entries []models.RequestedSystemAccess
	if err := r.db.SelectContext(ctx, &entries, query, requestID); err != nil {
		return nil, fmt.Errorf("list requested accesses: %w", err)
	}
	return entries, nil
}

// List returns requests matching the filter, latest first.
func (r *AccessRequestRepository) List(ctx context.Context, filter models.AccessRequestFilter) ([]models.AccessRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT id, reference, requester_id, employee_id, justification, state, failure_reason, completed_at, created_at, updated_at
	FROM access_requests`)

	conditions := make([]string, 0, 3)
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.AccessRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	return requests, nil
}

// SetFailure marks a request as errored with a human readable reason.
func (r *AccessRequestRepository) SetFailure(ctx context.Context, id, reason string) error {
	const query = `UPDATE access_requests SET state = $2, failure_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.RequestStateError, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("set request failure: %w", err)
	}
	return nil
}

// TransitionState moves a request from one state to another. The from-state
// guard makes side effect triggers idempotent: only one caller observes the
// transition. Returns false when the guard did not match.
func (r *AccessRequestRepository) TransitionState(ctx context.Context, id string, from, to models.AccessRequestState) (bool, error) {
	now := time.Now().UTC()
	var result sql.Result
	var err error
	if to == models.RequestStateFinalized {
		const query = `UPDATE access_requests SET state = $3, completed_at = $4, updated_at = $4 WHERE id = $1 AND state = $2`
		result, err = r.db.ExecContext(ctx, query, id, from, to, now)
	} else {
		const query = `UPDATE access_requests SET state = $3, updated_at = $4 WHERE id = $1 AND state = $2`
		result, err = r.db.ExecContext(ctx, query, id, from, to, now)
	}
	if err != nil {
		return false, fmt.Errorf("transition request state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check transition rows: %w", err)
	}
	return rows > 0, nil
}

// Recompute derives the next aggregate state from the validation tally
// under a row lock on the request, so concurrent resolutions serialize.
// The pure transition rule is supplied by the caller; this method only
// guarantees atomicity. It returns the previous and the persisted state.
func (r *AccessRequestRepository) Recompute(ctx context.Context, requestID string, next func(models.AccessRequestState, models.ValidationTally) models.AccessRequestState) (prev, current models.AccessRequestState, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("begin recompute tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &prev, `SELECT state FROM access_requests WHERE id = $1 FOR UPDATE`, requestID); err != nil {
		return "", "", err
	}

	var tally models.ValidationTally
	const tallyQuery = `SELECT COUNT(*) AS total,
	COUNT(*) FILTER (WHERE state = 'APPROVED') AS approved,
	COUNT(*) FILTER (WHERE state = 'REJECTED') AS rejected
	FROM validation_records WHERE request_id = $1`
	if err = tx.GetContext(ctx, &tally, tallyQuery, requestID); err != nil {
		return "", "", fmt.Errorf("tally validations: %w", err)
	}

	current = next(prev, tally)
	if current != prev {
		if _, err = tx.ExecContext(ctx, `UPDATE access_requests SET state = $2, updated_at = $3 WHERE id = $1`, requestID, current, time.Now().UTC()); err != nil {
			return "", "", fmt.Errorf("persist recomputed state: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", "", fmt.Errorf("commit recompute tx: %w", err)
	}
	return prev, current, nil
}

// MarkEntriesApproved flips the approval flag on every entry of a request.
func (r *AccessRequestRepository) MarkEntriesApproved(ctx context.Context, requestID string, ts time.Time) error {
	const query = `UPDATE requested_system_accesses SET approved = TRUE, approved_at = $2 WHERE request_id = $1`
	if _, err := r.db.ExecContext(ctx, query, requestID, ts); err != nil {
		return fmt.Errorf("mark entries approved: %w", err)
	}
	return nil
}
