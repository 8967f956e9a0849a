package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselz/projecthub-api/internal/middleware"
	"github.com/oselz/projecthub-api/internal/models"
	"github.com/oselz/projecthub-api/internal/service"
	"github.com/oselz/projecthub-api/pkg/config"
)

type memoryEventRepo struct {
	events map[string]*models.CalendarEvent
	nextID int
}

func newMemoryEventRepo() *memoryEventRepo {
	return &memoryEventRepo{events: map[string]*models.CalendarEvent{}}
}

func (m *memoryEventRepo) Create(_ context.Context, event *models.CalendarEvent) error {
	m.nextID++
	event.ID = fmt.Sprintf("evt-%d", m.nextID)
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *memoryEventRepo) Update(_ context.Context, event *models.CalendarEvent) error {
	if _, ok := m.events[event.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *memoryEventRepo) GetByID(_ context.Context, id string) (*models.CalendarEvent, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *event
	return &copied, nil
}

func (m *memoryEventRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.events, id)
	return nil
}

func (m *memoryEventRepo) ListByUser(_ context.Context, userID string) ([]models.CalendarEvent, error) {
	out := []models.CalendarEvent{}
	for _, e := range m.events {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memoryEventRepo) ListByRange(context.Context, time.Time, time.Time, string) ([]models.CalendarEvent, error) {
	return nil, nil
}

func (m *memoryEventRepo) ListUpcoming(_ context.Context, userID string, _ int) ([]models.CalendarEvent, error) {
	return m.ListByUser(context.Background(), userID)
}

func newEventHandlerFixture() (*EventHandler, *memoryEventRepo) {
	repo := newMemoryEventRepo()
	eventSvc := service.NewEventSyncService(repo, nil, nil, service.NewMetricsService(), nil, nil)
	agendaSvc := service.NewAgendaService(eventSvc, nil, config.AgendaConfig{DefaultLimit: 10, CacheTTL: time.Minute}, nil)
	return NewEventHandler(eventSvc, agendaSvc), repo
}

func authedContext(t *testing.T, rec *httptest.ResponseRecorder, userID string) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: models.RoleMember})
	return c
}

func TestEventHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newEventHandlerFixture()

	payload := map[string]interface{}{
		"title":      "Sprint review",
		"event_type": "MEETING",
		"start_time": time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, "user-1")
	c.Request = httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, repo.events, 1)
	for _, e := range repo.events {
		assert.Equal(t, "user-1", e.UserID)
		assert.Equal(t, models.EventMeeting, e.EventType)
	}
}

func TestEventHandlerCreateRejectsUnknownType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newEventHandlerFixture()

	body, _ := json.Marshal(map[string]interface{}{
		"title":      "Odd",
		"event_type": "PARTY",
		"start_time": time.Now().UTC().Format(time.RFC3339),
	})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, "user-1")
	c.Request = httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventHandlerCreateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newEventHandlerFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte("{}")))

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventHandlerDeleteForeignEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newEventHandlerFixture()

	event := &models.CalendarEvent{
		UserID:    "user-1",
		Title:     "Private",
		EventType: models.EventMeeting,
		StartTime: time.Now().UTC(),
		EndTime:   time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), event))

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, "user-2")
	c.Request = httptest.NewRequest(http.MethodDelete, "/events/"+event.ID, nil)
	c.Params = gin.Params{{Key: "id", Value: event.ID}}

	handler.Delete(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, repo.events, 1, "foreign delete must not remove the event")
}

func TestEventHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newEventHandlerFixture()

	event := &models.CalendarEvent{
		UserID:    "user-1",
		Title:     "Sprint review",
		EventType: models.EventMeeting,
		StartTime: time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), event))

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, "user-1")
	c.Request = httptest.NewRequest(http.MethodGet, "/events/export?format=csv", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Sprint review")
}
