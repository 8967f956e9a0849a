package models

import "time"

// TaskStatus tracks task progress.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

// Task represents a task row. Its deadline drives a derived
// TASK_DEADLINE calendar event.
type Task struct {
	ID          string     `db:"id" json:"id"`
	ProjectID   string     `db:"project_id" json:"project_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      TaskStatus `db:"status" json:"status"`
	AssigneeID  string     `db:"assignee_id" json:"assignee_id"`
	Deadline    *time.Time `db:"deadline" json:"deadline,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	ProjectID  string
	AssigneeID string
	Status     *TaskStatus
	Page       int
	PageSize   int
}
