package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/peoplehub/hr-access-api/internal/models"
)

// TransferRepository persists department mobility events.
type TransferRepository struct {
	db *sqlx.DB
}

// NewTransferRepository constructs the repository.
func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a transfer row.
func (r *TransferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO transfers
	(id, employee_id, from_department, to_department, access_request_id, created_by, created_at)
	VALUES (:id, :employee_id, :from_department, :to_department, :access_request_id, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, transfer); err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

// ListByEmployee returns an employee's transfer history, newest first.
func (r *TransferRepository) ListByEmployee(ctx context.Context, employeeID string) ([]models.Transfer, error) {
	const query = `SELECT id, employee_id, from_department, to_department, access_request_id, created_by, created_at
	FROM transfers WHERE employee_id = $1 ORDER BY created_at DESC`
	var transfers []models.Transfer
	if err := r.db.SelectContext(ctx, &transfers, query, employeeID); err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return transfers, nil
}
