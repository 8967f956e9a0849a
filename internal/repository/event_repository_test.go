package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/oselz/projecthub-api/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func eventRows(events ...models.CalendarEvent) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "title", "description", "event_type", "start_time", "end_time",
		"all_day", "color", "location", "reminder_minutes", "entity_kind", "entity_id",
		"remote_event_id", "remote_calendar_id", "is_synced", "created_at", "updated_at",
	})
	for _, e := range events {
		rows.AddRow(e.ID, e.UserID, e.Title, e.Description, e.EventType, e.StartTime, e.EndTime,
			e.AllDay, e.Color, e.Location, e.ReminderMinutes, e.EntityKind, e.EntityID,
			e.RemoteEventID, e.RemoteCalendarID, e.IsSynced, e.CreatedAt, e.UpdatedAt)
	}
	return rows
}

func TestEventRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO calendar_events")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.CalendarEvent{
		UserID:    "user-1",
		Title:     "Kickoff",
		EventType: models.EventMeeting,
		StartTime: time.Now().UTC(),
		EndTime:   time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), event))

	require.NotEmpty(t, event.ID)
	require.Equal(t, models.EventMeeting.DefaultColor(), event.Color)
	require.False(t, event.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE calendar_events SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.CalendarEvent{ID: "missing"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListByRangeScopesUser(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	event := models.CalendarEvent{ID: "evt-1", UserID: "user-1", Title: "In window", EventType: models.EventMeeting}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE start_time <= $1 AND end_time >= $2 AND user_id = $3 ORDER BY start_time ASC")).
		WithArgs(end, start, "user-1").
		WillReturnRows(eventRows(event))

	events, err := repo.ListByRange(context.Background(), start, end, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "evt-1", events[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListByRangeUnscoped(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE start_time <= $1 AND end_time >= $2 ORDER BY start_time ASC")).
		WithArgs(end, start).
		WillReturnRows(eventRows())

	events, err := repo.ListByRange(context.Background(), start, end, "")
	require.NoError(t, err)
	require.Empty(t, events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListByEntity(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	event := models.CalendarEvent{ID: "evt-1", UserID: "user-1", Title: "Atlas begins", EventType: models.EventProjectStart}
	mock.ExpectQuery(regexp.QuoteMeta("FROM calendar_events WHERE entity_kind = $1 AND entity_id = $2")).
		WithArgs(models.EntityProject, "proj-1").
		WillReturnRows(eventRows(event))

	events, err := repo.ListByEntity(context.Background(), models.EntityProject, "proj-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "evt-1", events[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDeleteByEntityReportsCount(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM calendar_events WHERE entity_kind = $1 AND entity_id = $2")).
		WithArgs(models.EntityProject, "proj-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	removed, err := repo.DeleteByEntity(context.Background(), models.EntityProject, "proj-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDeleteByEntityType(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM calendar_events WHERE entity_kind = $1 AND entity_id = $2 AND event_type = $3")).
		WithArgs(models.EntityTask, "task-1", models.EventTaskDeadline).
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.DeleteByEntityType(context.Background(), models.EntityTask, "task-1", models.EventTaskDeadline)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}
