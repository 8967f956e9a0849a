package models

import "time"

// ProjectStatus tracks the high-level project lifecycle.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "PLANNING"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
)

// Project represents a project row. Scheduling dates drive derived
// calendar events via the event generator.
type Project struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Status      ProjectStatus `db:"status" json:"status"`
	OwnerID     string        `db:"owner_id" json:"owner_id"`
	StartDate   *time.Time    `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time    `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Status   *ProjectStatus
	OwnerID  string
	Search   string
	Page     int
	PageSize int
}
