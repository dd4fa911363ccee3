package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleHR         UserRole = "HR"
	RoleManager    UserRole = "MANAGER"
	RoleIT         UserRole = "IT"
	RoleEmployee   UserRole = "EMPLOYEE"
)

// User represents an application user stored in the users table.
// Directory synchronisation feeds this table from the outside; the
// validation engine only ever reads it.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Department groups employees and carries manager assignments.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ManagerAssignment links a user to a department they manage. A department
// may flag at most one assignment as principal.
type ManagerAssignment struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Principal    bool      `db:"principal" json:"principal"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Manager is the resolved view of a manager assignment joined with the
// user's active flag. Resolution order is assignment creation time then
// user id, which keeps representative selection deterministic.
type Manager struct {
	UserID    string `db:"user_id" json:"user_id"`
	FullName  string `db:"full_name" json:"full_name"`
	Principal bool   `db:"principal" json:"principal"`
	Active    bool   `db:"active" json:"active"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
