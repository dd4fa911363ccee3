package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/peoplehub/hr-access-api/internal/models"
)

// DepartmentRepository resolves departments and their manager groups. Like
// the user table, manager assignments are maintained by the directory feed
// and only read here.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// GetByID fetches a department.
func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, code, active, created_at, updated_at FROM departments WHERE id = $1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// ResolveManagers returns the currently active managers of a department.
// Ordering by assignment creation time then user id keeps the fallback
// representative choice stable across invocations.
func (r *DepartmentRepository) ResolveManagers(ctx context.Context, departmentID string) ([]models.Manager, error) {
	const query = `SELECT ma.user_id, u.full_name, ma.principal, u.active
	FROM manager_assignments ma
	JOIN users u ON u.id = ma.user_id
	WHERE ma.department_id = $1 AND u.active = TRUE
	ORDER BY ma.created_at ASC, ma.user_id ASC`
	var managers []models.Manager
	if err := r.db.SelectContext(ctx, &managers, query, departmentID); err != nil {
		return nil, fmt.Errorf("resolve department managers: %w", err)
	}
	return managers, nil
}
