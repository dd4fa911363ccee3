package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/peoplehub/hr-access-api/internal/dto"
	"github.com/peoplehub/hr-access-api/internal/models"
)

// ValidationRepository persists validation records.
type ValidationRepository struct {
	db *sqlx.DB
}

// NewValidationRepository constructs the repository.
func NewValidationRepository(db *sqlx.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

// FanOutResult reports what a fan-out transaction did.
type FanOutResult struct {
	Created  []models.ValidationRecord
	Existing int
}

// Total is the number of records present after fan-out.
func (r FanOutResult) Total() int { return len(r.Created) + r.Existing }

// CreateFanOut inserts the planned validation records inside a single
// transaction, locking the parent request row so concurrent fan-out
// attempts serialize. Records whose (request, system, configuration)
// triple already exists are skipped, which makes re-invocation safe.
// When at least one record exists afterwards the request is moved from
// PENDING to VALIDATING in the same transaction.
func (r *ValidationRepository) CreateFanOut(ctx context.Context, requestID string, records []models.ValidationRecord) (result FanOutResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin fan-out tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var state models.AccessRequestState
	if err = tx.GetContext(ctx, &state, `SELECT state FROM access_requests WHERE id = $1 FOR UPDATE`, requestID); err != nil {
		return result, err
	}

	const existsQuery = `SELECT COUNT(*) FROM validation_records WHERE request_id = $1 AND system_id = $2 AND config_id = $3`
	const insertQuery = `INSERT INTO validation_records
	(id, request_id, system_id, config_id, kind, state, representative_id, group_snapshot, created_at)
	VALUES (:id, :request_id, :system_id, :config_id, :kind, :state, :representative_id, :group_snapshot, :created_at)`

	now := time.Now().UTC()
	for i := range records {
		var count int
		if err = tx.GetContext(ctx, &count, existsQuery, requestID, records[i].SystemID, records[i].ConfigID); err != nil {
			return result, fmt.Errorf("check existing validation: %w", err)
		}
		if count > 0 {
			result.Existing++
			continue
		}
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		records[i].RequestID = requestID
		records[i].State = models.ValidationStatePending
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, insertQuery, records[i]); err != nil {
			return result, fmt.Errorf("create validation record: %w", err)
		}
		result.Created = append(result.Created, records[i])
	}

	if result.Total() > 0 && state == models.RequestStatePending {
		if _, err = tx.ExecContext(ctx, `UPDATE access_requests SET state = $2, updated_at = $3 WHERE id = $1`, requestID, models.RequestStateValidating, now); err != nil {
			return result, fmt.Errorf("mark request validating: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit fan-out tx: %w", err)
	}
	return result, nil
}

// GetByID fetches a validation record.
func (r *ValidationRepository) GetByID(ctx context.Context, id string) (*models.ValidationRecord, error) {
	const query = `SELECT id, request_id, system_id, config_id, kind, state, representative_id, group_snapshot,
	resolved_by, resolved_at, resolution_note, created_at
	FROM validation_records WHERE id = $1`
	var record models.ValidationRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByRequest returns all records for a request in creation order.
func (r *ValidationRepository) ListByRequest(ctx context.Context, requestID string) ([]models.ValidationRecord, error) {
	const query = `SELECT id, request_id, system_id, config_id, kind, state, representative_id, group_snapshot,
	resolved_by, resolved_at, resolution_note, created_at
	FROM validation_records WHERE request_id = $1 ORDER BY created_at ASC, id ASC`
	var records []models.ValidationRecord
	if err := r.db.SelectContext(ctx, &records, query, requestID); err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	return records, nil
}

// ResolveValidationParams groups the columns written on resolution.
type ResolveValidationParams struct {
	ID         string
	State      models.ValidationState
	ResolvedBy string
	ResolvedAt time.Time
	Note       *string
}

// Resolve moves a pending record to its terminal state. The state guard
// means a record can be resolved exactly once; a second attempt reports
// sql.ErrNoRows.
func (r *ValidationRepository) Resolve(ctx context.Context, params ResolveValidationParams) error {
	const query = `UPDATE validation_records
	SET state = :state, resolved_by = :resolved_by, resolved_at = :resolved_at, resolution_note = :note
	WHERE id = :id AND state = 'PENDING'`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"state":       params.State,
		"resolved_by": params.ResolvedBy,
		"resolved_at": params.ResolvedAt,
		"note":        params.Note,
	})
	if err != nil {
		return fmt.Errorf("resolve validation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resolve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListPendingForUser returns the validator inbox: pending records where the
// user is the representative or a member of the frozen group snapshot.
func (r *ValidationRepository) ListPendingForUser(ctx context.Context, userID string) ([]dto.InboxItem, error) {
	const query = `SELECT v.id, v.request_id, v.system_id, v.config_id, v.kind, v.state, v.representative_id, v.group_snapshot,
	v.resolved_by, v.resolved_at, v.resolution_note, v.created_at,
	a.reference, a.employee_id
	FROM validation_records v
	JOIN access_requests a ON a.id = v.request_id
	WHERE v.state = 'PENDING' AND (v.representative_id = $1 OR $1 = ANY(v.group_snapshot))
	ORDER BY v.created_at ASC`

	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending validations: %w", err)
	}
	defer rows.Close()

	var items []dto.InboxItem
	for rows.Next() {
		var row struct {
			models.ValidationRecord
			Reference  string `db:"reference"`
			EmployeeID string `db:"employee_id"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan inbox row: %w", err)
		}
		items = append(items, dto.InboxItem{
			Validation: row.ValidationRecord,
			Reference:  row.Reference,
			EmployeeID: row.EmployeeID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inbox rows: %w", err)
	}
	return items, nil
}
