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

// ValidatorConfigRepository persists validator configurations.
type ValidatorConfigRepository struct {
	db *sqlx.DB
}

// NewValidatorConfigRepository constructs the repository.
func NewValidatorConfigRepository(db *sqlx.DB) *ValidatorConfigRepository {
	return &ValidatorConfigRepository{db: db}
}

// ListActiveBySystem returns active configurations for a system ordered by
// rank; this is the fan-out input.
func (r *ValidatorConfigRepository) ListActiveBySystem(ctx context.Context, systemID string) ([]models.ValidatorConfiguration, error) {
	const query = `SELECT id, system_id, kind, user_id, department_id, rank, required, active, created_at, updated_at
	FROM validator_configurations WHERE system_id = $1 AND active = TRUE ORDER BY rank ASC, created_at ASC`
	var configs []models.ValidatorConfiguration
	if err := r.db.SelectContext(ctx, &configs, query, systemID); err != nil {
		return nil, fmt.Errorf("list validator configurations: %w", err)
	}
	return configs, nil
}

// ListBySystem returns all configurations for a system, disabled included.
func (r *ValidatorConfigRepository) ListBySystem(ctx context.Context, systemID string) ([]models.ValidatorConfiguration, error) {
	const query = `SELECT id, system_id, kind, user_id, department_id, rank, required, active, created_at, updated_at
	FROM validator_configurations WHERE system_id = $1 ORDER BY rank ASC, created_at ASC`
	var configs []models.ValidatorConfiguration
	if err := r.db.SelectContext(ctx, &configs, query, systemID); err != nil {
		return nil, fmt.Errorf("list validator configurations: %w", err)
	}
	return configs, nil
}

// GetByID fetches a configuration.
func (r *ValidatorConfigRepository) GetByID(ctx context.Context, id string) (*models.ValidatorConfiguration, error) {
	const query = `SELECT id, system_id, kind, user_id, department_id, rank, required, active, created_at, updated_at
	FROM validator_configurations WHERE id = $1`
	var config models.ValidatorConfiguration
	if err := r.db.GetContext(ctx, &config, query, id); err != nil {
		return nil, err
	}
	return &config, nil
}

// Create inserts a configuration.
func (r *ValidatorConfigRepository) Create(ctx context.Context, config *models.ValidatorConfiguration) error {
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now
	const query = `INSERT INTO validator_configurations
	(id, system_id, kind, user_id, department_id, rank, required, active, created_at, updated_at)
	VALUES (:id, :system_id, :kind, :user_id, :department_id, :rank, :required, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, config); err != nil {
		return fmt.Errorf("create validator configuration: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a configuration.
func (r *ValidatorConfigRepository) Update(ctx context.Context, config *models.ValidatorConfiguration) error {
	config.UpdatedAt = time.Now().UTC()
	const query = `UPDATE validator_configurations
	SET kind = :kind, user_id = :user_id, department_id = :department_id, rank = :rank, required = :required, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, config)
	if err != nil {
		return fmt.Errorf("update validator configuration: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check config update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetActive toggles the soft-disable flag. Configurations are never hard
// deleted so spawned validation records keep a meaningful back-reference.
func (r *ValidatorConfigRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE validator_configurations SET active = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set validator configuration active: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check config active rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
