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

const eventColumns = `id, user_id, title, description, event_type, start_time, end_time, all_day, color, location, reminder_minutes, entity_kind, entity_id, remote_event_id, remote_calendar_id, is_synced, created_at, updated_at`

// EventRepository is the authoritative store for calendar events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a calendar event, assigning id and timestamps.
func (r *EventRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	if event.Color == "" {
		event.Color = event.EventType.DefaultColor()
	}
	query := `INSERT INTO calendar_events (id, user_id, title, description, event_type, start_time, end_time, all_day, color, location, reminder_minutes, entity_kind, entity_id, remote_event_id, remote_calendar_id, is_synced, created_at, updated_at)
VALUES (:id, :user_id, :title, :description, :event_type, :start_time, :end_time, :all_day, :color, :location, :reminder_minutes, :entity_kind, :entity_id, :remote_event_id, :remote_calendar_id, :is_synced, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of an event row.
func (r *EventRepository) Update(ctx context.Context, event *models.CalendarEvent) error {
	event.UpdatedAt = time.Now().UTC()
	query := `UPDATE calendar_events SET title = :title, description = :description, event_type = :event_type, start_time = :start_time,
end_time = :end_time, all_day = :all_day, color = :color, location = :location, reminder_minutes = :reminder_minutes,
remote_event_id = :remote_event_id, remote_calendar_id = :remote_calendar_id, is_synced = :is_synced, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update calendar event: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID fetches a calendar event.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.CalendarEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM calendar_events WHERE id = $1`, eventColumns)
	var event models.CalendarEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Delete removes an event row.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM calendar_events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByUser returns every event owned by the user.
func (r *EventRepository) ListByUser(ctx context.Context, userID string) ([]models.CalendarEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM calendar_events WHERE user_id = $1`, eventColumns)
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		return nil, fmt.Errorf("list events by user: %w", err)
	}
	return events, nil
}

// ListByRange returns events whose interval intersects [start, end],
// ascending by start time. A non-empty userID scopes the query.
func (r *EventRepository) ListByRange(ctx context.Context, start, end time.Time, userID string) ([]models.CalendarEvent, error) {
	where := []string{"start_time <= $1", "end_time >= $2"}
	args := []interface{}{end, start}
	if userID != "" {
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, userID)
	}
	query := fmt.Sprintf(`SELECT %s FROM calendar_events WHERE %s ORDER BY start_time ASC`,
		eventColumns, strings.Join(where, " AND "))
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events by range: %w", err)
	}
	return events, nil
}

// ListUpcoming returns the next events for a user, ascending by start time.
func (r *EventRepository) ListUpcoming(ctx context.Context, userID string, limit int) ([]models.CalendarEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT %s FROM calendar_events WHERE user_id = $1 AND end_time >= $2 ORDER BY start_time ASC LIMIT %d`,
		eventColumns, limit)
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, userID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// ListByEntity returns the derived events generated from an entity.
func (r *EventRepository) ListByEntity(ctx context.Context, kind models.EntityType, entityID string) ([]models.CalendarEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM calendar_events WHERE entity_kind = $1 AND entity_id = $2`, eventColumns)
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, kind, entityID); err != nil {
		return nil, fmt.Errorf("list events by entity: %w", err)
	}
	return events, nil
}

// DeleteByEntity removes all derived events for an entity and reports
// how many rows went away.
func (r *EventRepository) DeleteByEntity(ctx context.Context, kind models.EntityType, entityID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM calendar_events WHERE entity_kind = $1 AND entity_id = $2", kind, entityID)
	if err != nil {
		return 0, fmt.Errorf("delete events by entity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete events by entity: %w", err)
	}
	return affected, nil
}

// DeleteByEntityType removes the single derived event for one
// (entity, event type) pair. Regeneration calls this before inserting
// the fresh copy, which is what keeps the per-type uniqueness invariant.
func (r *EventRepository) DeleteByEntityType(ctx context.Context, kind models.EntityType, entityID string, eventType models.EventType) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM calendar_events WHERE entity_kind = $1 AND entity_id = $2 AND event_type = $3",
		kind, entityID, eventType)
	if err != nil {
		return 0, fmt.Errorf("delete events by entity type: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete events by entity type: %w", err)
	}
	return affected, nil
}
