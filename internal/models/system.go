package models

import "time"

// System is an IT system access can be requested for.
type System struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AccessLevel is a catalog entry describing a grantable level on a system.
type AccessLevel struct {
	ID       string `db:"id" json:"id"`
	SystemID string `db:"system_id" json:"system_id"`
	Name     string `db:"name" json:"name"`
	Code     string `db:"code" json:"code"`
	Active   bool   `db:"active" json:"active"`
}
