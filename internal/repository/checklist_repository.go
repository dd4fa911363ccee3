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

// ChecklistRepository persists onboarding/offboarding checklists.
type ChecklistRepository struct {
	db *sqlx.DB
}

// NewChecklistRepository constructs the repository.
func NewChecklistRepository(db *sqlx.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

// ListTemplateItems returns the active template for a checklist kind.
func (r *ChecklistRepository) ListTemplateItems(ctx context.Context, kind models.ChecklistKind) ([]models.ChecklistTemplateItem, error) {
	const query = `SELECT id, kind, title, assigned_role, rank, active
	FROM checklist_template_items WHERE kind = $1 AND active = TRUE ORDER BY rank ASC`
	var items []models.ChecklistTemplateItem
	if err := r.db.SelectContext(ctx, &items, query, kind); err != nil {
		return nil, fmt.Errorf("list checklist template: %w", err)
	}
	return items, nil
}

// Create inserts a checklist with its instantiated tasks in one
// transaction.
func (r *ChecklistRepository) Create(ctx context.Context, checklist *models.Checklist, tasks []models.ChecklistTask) (err error) {
	if checklist.ID == "" {
		checklist.ID = uuid.NewString()
	}
	if checklist.State == "" {
		checklist.State = models.ChecklistOpen
	}
	now := time.Now().UTC()
	if checklist.CreatedAt.IsZero() {
		checklist.CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create checklist tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertChecklist = `INSERT INTO checklists (id, employee_id, kind, state, closed_at, created_at)
	VALUES (:id, :employee_id, :kind, :state, :closed_at, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertChecklist, checklist); err != nil {
		return fmt.Errorf("create checklist: %w", err)
	}

	const insertTask = `INSERT INTO checklist_tasks (id, checklist_id, title, assigned_role, rank, state)
	VALUES (:id, :checklist_id, :title, :assigned_role, :rank, :state)`
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = uuid.NewString()
		}
		tasks[i].ChecklistID = checklist.ID
		if tasks[i].State == "" {
			tasks[i].State = models.FulfillmentTaskOpen
		}
		if _, err = tx.NamedExecContext(ctx, insertTask, tasks[i]); err != nil {
			return fmt.Errorf("create checklist task: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create checklist tx: %w", err)
	}
	return nil
}

// GetByID fetches a checklist with its tasks.
func (r *ChecklistRepository) GetByID(ctx context.Context, id string) (*models.Checklist, error) {
	const query = `SELECT id, employee_id, kind, state, closed_at, created_at FROM checklists WHERE id = $1`
	var checklist models.Checklist
	if err := r.db.GetContext(ctx, &checklist, query, id); err != nil {
		return nil, err
	}
	const taskQuery = `SELECT id, checklist_id, title, assigned_role, rank, state, completed_by, completed_at
	FROM checklist_tasks WHERE checklist_id = $1 ORDER BY rank ASC`
	if err := r.db.SelectContext(ctx, &checklist.Tasks, taskQuery, id); err != nil {
		return nil, fmt.Errorf("list checklist tasks: %w", err)
	}
	return &checklist, nil
}

// GetTask fetches a single checklist task.
func (r *ChecklistRepository) GetTask(ctx context.Context, id string) (*models.ChecklistTask, error) {
	const query = `SELECT id, checklist_id, title, assigned_role, rank, state, completed_by, completed_at
	FROM checklist_tasks WHERE id = $1`
	var task models.ChecklistTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// CompleteTask marks a checklist task done; the OPEN guard keeps it
// exactly-once.
func (r *ChecklistRepository) CompleteTask(ctx context.Context, id, userID string, ts time.Time) error {
	const query = `UPDATE checklist_tasks SET state = 'DONE', completed_by = $2, completed_at = $3 WHERE id = $1 AND state = 'OPEN'`
	result, err := r.db.ExecContext(ctx, query, id, userID, ts)
	if err != nil {
		return fmt.Errorf("complete checklist task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check checklist complete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountOpenTasks reports how many tasks of a checklist remain open.
func (r *ChecklistRepository) CountOpenTasks(ctx context.Context, checklistID string) (int, error) {
	const query = `SELECT COUNT(*) FROM checklist_tasks WHERE checklist_id = $1 AND state = 'OPEN'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, checklistID); err != nil {
		return 0, fmt.Errorf("count open checklist tasks: %w", err)
	}
	return count, nil
}

// Close transitions an open checklist to CLOSED; returns false when it was
// already closed.
func (r *ChecklistRepository) Close(ctx context.Context, id string, ts time.Time) (bool, error) {
	const query = `UPDATE checklists SET state = 'CLOSED', closed_at = $2 WHERE id = $1 AND state = 'OPEN'`
	result, err := r.db.ExecContext(ctx, query, id, ts)
	if err != nil {
		return false, fmt.Errorf("close checklist: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check close rows: %w", err)
	}
	return rows > 0, nil
}
