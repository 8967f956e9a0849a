package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oselz/projecthub-api/internal/models"
)

const deliverableColumns = `id, project_id, name, description, status, owner_id, submitted_at, created_at, updated_at`

// DeliverableRepository persists deliverables.
type DeliverableRepository struct {
	db *sqlx.DB
}

// NewDeliverableRepository constructs a deliverable repository.
func NewDeliverableRepository(db *sqlx.DB) *DeliverableRepository {
	return &DeliverableRepository{db: db}
}

// Create inserts a deliverable.
func (r *DeliverableRepository) Create(ctx context.Context, deliverable *models.Deliverable) error {
	if deliverable.ID == "" {
		deliverable.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	deliverable.CreatedAt = now
	deliverable.UpdatedAt = now
	query := `INSERT INTO deliverables (id, project_id, name, description, status, owner_id, submitted_at, created_at, updated_at)
VALUES (:id, :project_id, :name, :description, :status, :owner_id, :submitted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, deliverable); err != nil {
		return fmt.Errorf("create deliverable: %w", err)
	}
	return nil
}

// Update modifies a deliverable.
func (r *DeliverableRepository) Update(ctx context.Context, deliverable *models.Deliverable) error {
	deliverable.UpdatedAt = time.Now().UTC()
	query := `UPDATE deliverables SET name = :name, description = :description, status = :status, submitted_at = :submitted_at, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, deliverable)
	if err != nil {
		return fmt.Errorf("update deliverable: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID fetches a deliverable.
func (r *DeliverableRepository) GetByID(ctx context.Context, id string) (*models.Deliverable, error) {
	query := fmt.Sprintf(`SELECT %s FROM deliverables WHERE id = $1`, deliverableColumns)
	var deliverable models.Deliverable
	if err := r.db.GetContext(ctx, &deliverable, query, id); err != nil {
		return nil, err
	}
	return &deliverable, nil
}

// Delete removes a deliverable row.
func (r *DeliverableRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM deliverables WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete deliverable: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns deliverables matching the filter with a total count.
func (r *DeliverableRepository) List(ctx context.Context, filter models.DeliverableFilter) ([]models.Deliverable, int, error) {
	base := "FROM deliverables WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ProjectID != "" {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)+1))
		args = append(args, filter.ProjectID)
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count deliverables: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, deliverableColumns, base, size, (page-1)*size)
	var deliverables []models.Deliverable
	if err := r.db.SelectContext(ctx, &deliverables, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list deliverables: %w", err)
	}
	return deliverables, total, nil
}
