package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselz/projecthub-api/internal/models"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
)

type fakeEventRepo struct {
	events  map[string]*models.CalendarEvent
	nextID  int
	updates int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]*models.CalendarEvent{}}
}

func (f *fakeEventRepo) Create(_ context.Context, event *models.CalendarEvent) error {
	f.nextID++
	event.ID = fmt.Sprintf("evt-%d", f.nextID)
	stored := *event
	f.events[event.ID] = &stored
	return nil
}

func (f *fakeEventRepo) Update(_ context.Context, event *models.CalendarEvent) error {
	if _, ok := f.events[event.ID]; !ok {
		return sql.ErrNoRows
	}
	f.updates++
	stored := *event
	f.events[event.ID] = &stored
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*models.CalendarEvent, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *event
	return &copied, nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventRepo) ListByUser(_ context.Context, userID string) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListByRange(context.Context, time.Time, time.Time, string) ([]models.CalendarEvent, error) {
	return nil, nil
}

func (f *fakeEventRepo) ListUpcoming(context.Context, string, int) ([]models.CalendarEvent, error) {
	return nil, nil
}

type fakeGateway struct {
	insertID   string
	insertErr  error
	updateErr  error
	deleteErr  error
	inserts    int
	updates    int
	deletes    int
	lastRemote string
}

func (f *fakeGateway) Insert(_ context.Context, _ *models.CalendarEvent) (string, error) {
	f.inserts++
	if f.insertErr != nil {
		return "", f.insertErr
	}
	return f.insertID, nil
}

func (f *fakeGateway) Update(_ context.Context, remoteID string, _ *models.CalendarEvent) error {
	f.updates++
	f.lastRemote = remoteID
	return f.updateErr
}

func (f *fakeGateway) Delete(_ context.Context, remoteID string) error {
	f.deletes++
	f.lastRemote = remoteID
	return f.deleteErr
}

func (f *fakeGateway) List(context.Context, time.Time, time.Time) ([]models.RemoteEvent, error) {
	return nil, nil
}

func (f *fakeGateway) CalendarID() string { return "primary" }

func newSyncService(repo *fakeEventRepo, gw *fakeGateway) *EventSyncService {
	if gw == nil {
		return NewEventSyncService(repo, nil, nil, NewMetricsService(), nil, nil)
	}
	return NewEventSyncService(repo, gw, nil, NewMetricsService(), nil, nil)
}

func TestCreateEventDefaultsEndTime(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newSyncService(repo, nil)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:     "Design review",
		EventType: string(models.EventMeeting),
		StartTime: start,
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, start.Add(time.Hour), event.EndTime)
	assert.Equal(t, defaultManualReminderMinutes, event.ReminderMinutes)
	assert.False(t, event.IsSynced)
}

func TestCreateEventRejectsInvertedWindow(t *testing.T) {
	svc := newSyncService(newFakeEventRepo(), nil)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(-time.Minute)

	_, err := svc.Create(context.Background(), CreateEventRequest{
		Title:     "Backwards",
		EventType: string(models.EventMeeting),
		StartTime: start,
		EndTime:   &end,
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateEventRejectsUnknownType(t *testing.T) {
	svc := newSyncService(newFakeEventRepo(), nil)

	_, err := svc.Create(context.Background(), CreateEventRequest{
		Title:     "Mystery",
		EventType: "BIRTHDAY",
		StartTime: time.Now(),
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateEventSyncSuccessRecordsLinkage(t *testing.T) {
	repo := newFakeEventRepo()
	gw := &fakeGateway{insertID: "remote-123"}
	svc := newSyncService(repo, gw)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:        "Kickoff",
		EventType:    string(models.EventMeeting),
		StartTime:    time.Now().UTC(),
		SyncToRemote: true,
	}, "user-1")
	require.NoError(t, err)

	assert.True(t, event.IsSynced)
	assert.Equal(t, "remote-123", event.RemoteEventID)
	assert.Equal(t, "primary", event.RemoteCalendarID)

	stored, err := repo.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSynced)
	assert.Equal(t, "remote-123", stored.RemoteEventID)
}

func TestCreateEventSyncFailureStaysLocalOnly(t *testing.T) {
	repo := newFakeEventRepo()
	gw := &fakeGateway{insertErr: errors.New("provider down")}
	svc := newSyncService(repo, gw)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:        "Kickoff",
		EventType:    string(models.EventMeeting),
		StartTime:    time.Now().UTC(),
		SyncToRemote: true,
	}, "user-1")
	require.NoError(t, err, "a provider failure must not fail the request")

	assert.False(t, event.IsSynced)
	assert.Empty(t, event.RemoteEventID)
	assert.Equal(t, 1, gw.inserts)

	stored, err := repo.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSynced)
}

func TestUpdateEventRejectsNonOwner(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newSyncService(repo, nil)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:     "Private",
		EventType: string(models.EventMeeting),
		StartTime: time.Now().UTC(),
	}, "user-1")
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.Update(context.Background(), event.ID, "user-2", UpdateEventRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestUpdateSyncedEventPushesRemote(t *testing.T) {
	repo := newFakeEventRepo()
	gw := &fakeGateway{insertID: "remote-9"}
	svc := newSyncService(repo, gw)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:        "Planning",
		EventType:    string(models.EventMeeting),
		StartTime:    time.Now().UTC(),
		SyncToRemote: true,
	}, "user-1")
	require.NoError(t, err)

	title := "Planning v2"
	updated, err := svc.Update(context.Background(), event.ID, "user-1", UpdateEventRequest{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, 1, gw.updates)
	assert.Equal(t, "remote-9", gw.lastRemote)
	assert.True(t, updated.IsSynced)
}

func TestUpdateSyncedEventSurvivesRemoteFailure(t *testing.T) {
	repo := newFakeEventRepo()
	gw := &fakeGateway{insertID: "remote-9"}
	svc := newSyncService(repo, gw)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:        "Planning",
		EventType:    string(models.EventMeeting),
		StartTime:    time.Now().UTC(),
		SyncToRemote: true,
	}, "user-1")
	require.NoError(t, err)

	gw.updateErr = errors.New("provider down")
	title := "Planning v2"
	updated, err := svc.Update(context.Background(), event.ID, "user-1", UpdateEventRequest{Title: &title})
	require.NoError(t, err, "a stale mirror must not fail the request")

	// the mirror is stale, not gone
	assert.True(t, updated.IsSynced)

	stored, err := repo.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Planning v2", stored.Title)
}

func TestDeleteSyncedEventAttemptsRemoteOnce(t *testing.T) {
	repo := newFakeEventRepo()
	gw := &fakeGateway{insertID: "remote-5"}
	svc := newSyncService(repo, gw)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:        "Doomed",
		EventType:    string(models.EventMeeting),
		StartTime:    time.Now().UTC(),
		SyncToRemote: true,
	}, "user-1")
	require.NoError(t, err)

	gw.deleteErr = errors.New("provider down")
	require.NoError(t, svc.Delete(context.Background(), event.ID, "user-1"))

	assert.Equal(t, 1, gw.deletes, "exactly one remote delete attempt")
	_, err = repo.GetByID(context.Background(), event.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows, "local row goes away regardless of the remote outcome")
}

func TestDeleteLocalOnlyEventSkipsRemote(t *testing.T) {
	repo := newFakeEventRepo()
	gw := &fakeGateway{}
	svc := newSyncService(repo, gw)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:     "Local",
		EventType: string(models.EventMeeting),
		StartTime: time.Now().UTC(),
	}, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), event.ID, "user-1"))
	assert.Zero(t, gw.deletes)
}

func TestDeleteRejectsNonOwner(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newSyncService(repo, nil)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:     "Private",
		EventType: string(models.EventMeeting),
		StartTime: time.Now().UTC(),
	}, "user-1")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), event.ID, "user-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTriggerSyncInsertsWhenNeverMirrored(t *testing.T) {
	repo := newFakeEventRepo()
	gw := &fakeGateway{insertID: "remote-7"}
	svc := newSyncService(repo, gw)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:     "Later",
		EventType: string(models.EventMeeting),
		StartTime: time.Now().UTC(),
	}, "user-1")
	require.NoError(t, err)
	require.False(t, event.IsSynced)

	synced, err := svc.TriggerSync(context.Background(), event.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, synced.IsSynced)
	assert.Equal(t, "remote-7", synced.RemoteEventID)
	assert.Equal(t, 1, gw.inserts)
}

func TestTriggerSyncUpdatesWhenAlreadyMirrored(t *testing.T) {
	repo := newFakeEventRepo()
	gw := &fakeGateway{insertID: "remote-7"}
	svc := newSyncService(repo, gw)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:        "Mirrored",
		EventType:    string(models.EventMeeting),
		StartTime:    time.Now().UTC(),
		SyncToRemote: true,
	}, "user-1")
	require.NoError(t, err)

	_, err = svc.TriggerSync(context.Background(), event.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, gw.inserts)
	assert.Equal(t, 1, gw.updates)
}

func TestTriggerSyncBackfillsCalendarLinkage(t *testing.T) {
	repo := newFakeEventRepo()
	gw := &fakeGateway{}
	svc := newSyncService(repo, gw)

	seed := &models.CalendarEvent{
		UserID:        "user-1",
		Title:         "Mirrored elsewhere",
		EventType:     models.EventMeeting,
		StartTime:     time.Now().UTC(),
		EndTime:       time.Now().UTC().Add(time.Hour),
		RemoteEventID: "remote-9",
	}
	require.NoError(t, repo.Create(context.Background(), seed))

	_, err := svc.TriggerSync(context.Background(), seed.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, gw.updates)

	stored, err := repo.GetByID(context.Background(), seed.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSynced)
	assert.Equal(t, "primary", stored.RemoteCalendarID, "update path records the calendar the same way insert does")
}

func TestTriggerSyncWithoutGateway(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newSyncService(repo, nil)

	event, err := svc.Create(context.Background(), CreateEventRequest{
		Title:     "Offline",
		EventType: string(models.EventMeeting),
		StartTime: time.Now().UTC(),
	}, "user-1")
	require.NoError(t, err)

	_, err = svc.TriggerSync(context.Background(), event.ID, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetMissingEvent(t *testing.T) {
	svc := newSyncService(newFakeEventRepo(), nil)

	_, err := svc.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
