package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/peoplehub/hr-access-api/internal/models"
)

// FulfillmentRepository persists role-pool implementation tasks.
type FulfillmentRepository struct {
	db *sqlx.DB
}

// NewFulfillmentRepository constructs the repository.
func NewFulfillmentRepository(db *sqlx.DB) *FulfillmentRepository {
	return &FulfillmentRepository{db: db}
}

// CreateBatch inserts one task per requested system access in a single
// transaction. Generation is triggered exactly once by the guarded
// APPROVED transition, so no duplicate check is needed here.
func (r *FulfillmentRepository) CreateBatch(ctx context.Context, tasks []models.FulfillmentTask) (err error) {
	if len(tasks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tasks tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO fulfillment_tasks
	(id, request_id, system_id, access_level_id, assigned_role, state, created_at)
	VALUES (:id, :request_id, :system_id, :access_level_id, :assigned_role, :state, :created_at)`
	now := time.Now().UTC()
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = uuid.NewString()
		}
		if tasks[i].State == "" {
			tasks[i].State = models.FulfillmentTaskOpen
		}
		if tasks[i].CreatedAt.IsZero() {
			tasks[i].CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, query, tasks[i]); err != nil {
			return fmt.Errorf("create fulfillment task: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create tasks tx: %w", err)
	}
	return nil
}

// GetByID fetches a task.
func (r *FulfillmentRepository) GetByID(ctx context.Context, id string) (*models.FulfillmentTask, error) {
	const query = `SELECT id, request_id, system_id, access_level_id, assigned_role, state, completed_by, completed_at, created_at
	FROM fulfillment_tasks WHERE id = $1`
	var task models.FulfillmentTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListOpenByRole returns the open task pool for a role.
func (r *FulfillmentRepository) ListOpenByRole(ctx context.Context, role models.UserRole) ([]models.FulfillmentTask, error) {
	const query = `SELECT id, request_id, system_id, access_level_id, assigned_role, state, completed_by, completed_at, created_at
	FROM fulfillment_tasks WHERE assigned_role = $1 AND state = 'OPEN' ORDER BY created_at ASC`
	var tasks []models.FulfillmentTask
	if err := r.db.SelectContext(ctx, &tasks, query, role); err != nil {
		return nil, fmt.Errorf("list open tasks: %w", err)
	}
	return tasks, nil
}

// Complete marks a task done. The OPEN guard keeps completion exactly-once;
// a repeat reports sql.ErrNoRows.
func (r *FulfillmentRepository) Complete(ctx context.Context, id, userID string, ts time.Time) error {
	const query = `UPDATE fulfillment_tasks SET state = 'DONE', completed_by = $2, completed_at = $3 WHERE id = $1 AND state = 'OPEN'`
	result, err := r.db.ExecContext(ctx, query, id, userID, ts)
	if err != nil {
		return fmt.Errorf("complete fulfillment task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check complete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountOpenByRequest reports how many sibling tasks remain open.
func (r *FulfillmentRepository) CountOpenByRequest(ctx context.Context, requestID string) (int, error) {
	const query = `SELECT COUNT(*) FROM fulfillment_tasks WHERE request_id = $1 AND state = 'OPEN'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, requestID); err != nil {
		return 0, fmt.Errorf("count open tasks: %w", err)
	}
	return count, nil
}
