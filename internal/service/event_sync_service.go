package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oselz/projecthub-api/internal/gateway"
	"github.com/oselz/projecthub-api/internal/models"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
	"github.com/oselz/projecthub-api/pkg/timeparse"
)

type eventRepository interface {
	Create(ctx context.Context, event *models.CalendarEvent) error
	Update(ctx context.Context, event *models.CalendarEvent) error
	GetByID(ctx context.Context, id string) (*models.CalendarEvent, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]models.CalendarEvent, error)
	ListByRange(ctx context.Context, start, end time.Time, userID string) ([]models.CalendarEvent, error)
	ListUpcoming(ctx context.Context, userID string, limit int) ([]models.CalendarEvent, error)
}

// EventSyncService owns calendar events and their best-effort remote
// mirror. The local write always wins: a provider failure is logged,
// recorded in the event's sync state and absorbed, never returned to
// the caller as a request failure.
type EventSyncService struct {
	repo      eventRepository
	gw        gateway.CalendarGateway
	validator *validator.Validate
	metrics   *MetricsService
	cache     *CacheService
	logger    *zap.Logger
}

// NewEventSyncService constructs the service. A nil gateway disables
// remote mirroring entirely.
func NewEventSyncService(repo eventRepository, gw gateway.CalendarGateway, validate *validator.Validate, metrics *MetricsService, cache *CacheService, logger *zap.Logger) *EventSyncService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventSyncService{repo: repo, gw: gw, validator: validate, metrics: metrics, cache: cache, logger: logger}
}

// CreateEventRequest describes the create payload.
type CreateEventRequest struct {
	Title           string     `json:"title" validate:"required"`
	Description     string     `json:"description"`
	EventType       string     `json:"event_type" validate:"required"`
	StartTime       time.Time  `json:"start_time" validate:"required"`
	EndTime         *time.Time `json:"end_time"`
	AllDay          bool       `json:"all_day"`
	Color           string     `json:"color"`
	Location        *string    `json:"location"`
	ReminderMinutes *int       `json:"reminder_minutes"`
	SyncToRemote    bool       `json:"sync_to_remote"`
}

// UpdateEventRequest describes the patch payload. Nil fields are left
// untouched.
type UpdateEventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	EventType       *string    `json:"event_type"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	AllDay          *bool      `json:"all_day"`
	Color           *string    `json:"color"`
	Location        *string    `json:"location"`
	ReminderMinutes *int       `json:"reminder_minutes"`
}

const defaultManualReminderMinutes = 30

// Create validates and persists a new event, then mirrors it remotely
// when asked to. A failed remote insert leaves the event local-only.
func (s *EventSyncService) Create(ctx context.Context, req CreateEventRequest, ownerID string) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	eventType := models.EventType(req.EventType)
	if !eventType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown event type %q", req.EventType))
	}

	// a missing end defaults to one hour after the start; an explicit
	// inversion is rejected
	end := req.StartTime.Add(time.Hour)
	if req.EndTime != nil {
		if req.EndTime.Before(req.StartTime) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must not be before start_time")
		}
		end = *req.EndTime
	}

	reminder := defaultManualReminderMinutes
	if req.ReminderMinutes != nil && *req.ReminderMinutes >= 0 {
		reminder = *req.ReminderMinutes
	}

	event := &models.CalendarEvent{
		UserID:          ownerID,
		Title:           req.Title,
		Description:     req.Description,
		EventType:       eventType,
		StartTime:       req.StartTime,
		EndTime:         end,
		AllDay:          req.AllDay,
		Color:           req.Color,
		Location:        req.Location,
		ReminderMinutes: reminder,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.invalidateAgenda(ctx, ownerID)

	if req.SyncToRemote {
		s.pushInsert(ctx, event)
	}
	return event, nil
}

// Update applies a patch locally, then refreshes the remote copy when
// the event was previously synced. A failed remote update leaves the
// event marked synced with a stale mirror; the next successful sync
// call repairs it.
func (s *EventSyncService) Update(ctx context.Context, id, requesterID string, req UpdateEventRequest) (*models.CalendarEvent, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.UserID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "only the event owner may update it")
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.EventType != nil {
		eventType := models.EventType(*req.EventType)
		if !eventType.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown event type %q", *req.EventType))
		}
		event.EventType = eventType
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if req.AllDay != nil {
		event.AllDay = *req.AllDay
	}
	if req.Color != nil {
		event.Color = *req.Color
	}
	if req.Location != nil {
		event.Location = req.Location
	}
	if req.ReminderMinutes != nil && *req.ReminderMinutes >= 0 {
		event.ReminderMinutes = *req.ReminderMinutes
	}
	if event.EndTime.Before(event.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must not be before start_time")
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidateAgenda(ctx, event.UserID)

	if event.IsSynced && event.RemoteEventID != "" {
		s.pushUpdate(ctx, event)
	}
	return event, nil
}

// Delete removes an event. Only the owner may delete it. A synced event
// gets exactly one remote delete attempt; the local row goes away no
// matter how that attempt ends.
func (s *EventSyncService) Delete(ctx context.Context, id, requesterID string) error {
	event, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if event.UserID != requesterID {
		return appErrors.Clone(appErrors.ErrUnauthorized, "only the event owner may delete it")
	}

	if event.IsSynced && event.RemoteEventID != "" && s.gw != nil {
		start := time.Now()
		err := s.gw.Delete(ctx, event.RemoteEventID)
		s.metrics.ObserveRemoteSync("delete", err == nil, time.Since(start))
		if err != nil {
			s.remoteLog(err)("remote delete failed, removing local event anyway",
				zap.String("event_id", event.ID),
				zap.String("remote_event_id", event.RemoteEventID),
				zap.Error(err))
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.invalidateAgenda(ctx, event.UserID)
	return nil
}

// Get returns an event by id.
func (s *EventSyncService) Get(ctx context.Context, id string) (*models.CalendarEvent, error) {
	return s.load(ctx, id)
}

// ListByUser returns every event owned by the given user.
func (s *EventSyncService) ListByUser(ctx context.Context, userID string) ([]models.CalendarEvent, error) {
	events, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// ListRange returns events intersecting the window described by the raw
// boundary strings, ascending by start time. Unparseable boundaries
// resolve to the current instant rather than failing.
func (s *EventSyncService) ListRange(ctx context.Context, startRaw, endRaw, userID string) ([]models.CalendarEvent, error) {
	start, end := s.parseWindow(startRaw, endRaw)
	events, err := s.repo.ListByRange(ctx, start, end, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events by range")
	}
	return events, nil
}

// ListUpcoming returns the next events for a user ascending by start time.
func (s *EventSyncService) ListUpcoming(ctx context.Context, userID string, limit int) ([]models.CalendarEvent, error) {
	events, err := s.repo.ListUpcoming(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming events")
	}
	return events, nil
}

// TriggerSync pushes the event to the provider: an insert when the
// event never reached it, an update otherwise. Failures are absorbed
// and visible only through the returned sync state.
func (s *EventSyncService) TriggerSync(ctx context.Context, id, requesterID string) (*models.CalendarEvent, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.UserID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "only the event owner may sync it")
	}
	if s.gw == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "remote calendar sync is not enabled")
	}

	if event.RemoteEventID == "" {
		s.pushInsert(ctx, event)
	} else {
		s.pushUpdate(ctx, event)
	}
	return event, nil
}

// FetchRemoteWindow reads the provider's events inside the window. The
// result is returned to the caller as-is and never written locally.
func (s *EventSyncService) FetchRemoteWindow(ctx context.Context, startRaw, endRaw string) ([]models.RemoteEvent, error) {
	if s.gw == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "remote calendar sync is not enabled")
	}
	start, end := s.parseWindow(startRaw, endRaw)

	startedAt := time.Now()
	events, err := s.gw.List(ctx, start, end)
	s.metrics.ObserveRemoteSync("list", err == nil, time.Since(startedAt))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteSync.Code, appErrors.ErrRemoteSync.Status, "failed to fetch remote events")
	}
	return events, nil
}

func (s *EventSyncService) load(ctx context.Context, id string) (*models.CalendarEvent, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// pushInsert mirrors the event remotely and records the linkage. On
// failure the event stays local-only with IsSynced false.
func (s *EventSyncService) pushInsert(ctx context.Context, event *models.CalendarEvent) {
	if s.gw == nil {
		return
	}
	start := time.Now()
	remoteID, err := s.gw.Insert(ctx, event)
	s.metrics.ObserveRemoteSync("insert", err == nil, time.Since(start))
	if err != nil {
		s.remoteLog(err)("remote insert failed, event stays local-only",
			zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	event.RemoteEventID = remoteID
	event.RemoteCalendarID = s.gw.CalendarID()
	event.IsSynced = true
	if err := s.repo.Update(ctx, event); err != nil {
		s.logger.Error("failed to persist sync state after remote insert",
			zap.String("event_id", event.ID),
			zap.String("remote_event_id", remoteID),
			zap.Error(err))
	}
}

// pushUpdate refreshes the remote copy. On failure the event keeps
// IsSynced true: the mirror is stale, not gone.
func (s *EventSyncService) pushUpdate(ctx context.Context, event *models.CalendarEvent) {
	if s.gw == nil || event.RemoteEventID == "" {
		return
	}
	start := time.Now()
	err := s.gw.Update(ctx, event.RemoteEventID, event)
	s.metrics.ObserveRemoteSync("update", err == nil, time.Since(start))
	if err != nil {
		s.remoteLog(err)("remote update failed, mirror is stale",
			zap.String("event_id", event.ID),
			zap.String("remote_event_id", event.RemoteEventID),
			zap.Error(err))
		return
	}
	if !event.IsSynced || event.RemoteCalendarID == "" {
		event.IsSynced = true
		event.RemoteCalendarID = s.gw.CalendarID()
		if err := s.repo.Update(ctx, event); err != nil {
			s.logger.Error("failed to persist sync state after remote update",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}
}

func (s *EventSyncService) parseWindow(startRaw, endRaw string) (time.Time, time.Time) {
	start, startFallback := timeparse.Boundary(startRaw)
	end, endFallback := timeparse.Boundary(endRaw)
	if startFallback || endFallback {
		s.logger.Warn("unparseable range boundary, falling back to now",
			zap.String("start", startRaw),
			zap.String("end", endRaw))
	}
	return start, end
}

func (s *EventSyncService) invalidateAgenda(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, "agenda:"+userID+":*")
	}
}

// remoteLog picks the level for an absorbed remote failure. Provider
// sync errors are expected operational noise; anything else escalates.
func (s *EventSyncService) remoteLog(err error) func(string, ...zap.Field) {
	if appErrors.IsRemoteSync(err) {
		return s.logger.Warn
	}
	return s.logger.Error
}
