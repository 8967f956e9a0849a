package models

import "time"

// DeliverableStatus tracks the review lifecycle of a deliverable.
type DeliverableStatus string

const (
	DeliverableSubmitted DeliverableStatus = "SUBMITTED"
	DeliverableInReview  DeliverableStatus = "IN_REVIEW"
	DeliverableApproved  DeliverableStatus = "APPROVED"
	DeliverableRejected  DeliverableStatus = "REJECTED"
)

// Deliverable represents a deliverable row. Submission inserts a
// DELIVERABLE_DUE calendar event offset from the submission time.
type Deliverable struct {
	ID          string            `db:"id" json:"id"`
	ProjectID   string            `db:"project_id" json:"project_id"`
	Name        string            `db:"name" json:"name"`
	Description string            `db:"description" json:"description"`
	Status      DeliverableStatus `db:"status" json:"status"`
	OwnerID     string            `db:"owner_id" json:"owner_id"`
	SubmittedAt *time.Time        `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// DeliverableFilter narrows deliverable listings.
type DeliverableFilter struct {
	ProjectID string
	OwnerID   string
	Status    *DeliverableStatus
	Page      int
	PageSize  int
}
