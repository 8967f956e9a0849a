package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oselz/projecthub-api/internal/models"
	"github.com/oselz/projecthub-api/pkg/config"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
	"github.com/oselz/projecthub-api/pkg/jobs"
)

type generatorEventRepository interface {
	Create(ctx context.Context, event *models.CalendarEvent) error
	ListByEntity(ctx context.Context, kind models.EntityType, entityID string) ([]models.CalendarEvent, error)
	DeleteByEntity(ctx context.Context, kind models.EntityType, entityID string) (int64, error)
	DeleteByEntityType(ctx context.Context, kind models.EntityType, entityID string, eventType models.EventType) (int64, error)
}

type reminderDispatcher interface {
	Enqueue(job jobs.Job) error
}

// EventGeneratorService derives calendar events from entity lifecycle
// hooks. Regeneration is delete-then-recreate: the old derived event
// for a (entity, event type) pair is removed before the fresh one goes
// in, which keeps at most one event per pair. The fresh insert starts
// unsynced; any prior remote linkage is intentionally dropped.
type EventGeneratorService struct {
	repo       generatorEventRepository
	cfg        config.GenerationConfig
	dispatcher reminderDispatcher
	cache      *CacheService
	logger     *zap.Logger
}

// NewEventGeneratorService constructs the generator. The dispatcher and
// cache are optional; events are generated correctly without them.
func NewEventGeneratorService(repo generatorEventRepository, cfg config.GenerationConfig, dispatcher reminderDispatcher, cache *CacheService, logger *zap.Logger) *EventGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventGeneratorService{repo: repo, cfg: cfg, dispatcher: dispatcher, cache: cache, logger: logger}
}

// ProjectSaved regenerates the project's boundary events. Callers
// invoke it after their own persistence completes, passing only the
// fields the generator needs.
func (s *EventGeneratorService) ProjectSaved(ctx context.Context, projectID, name, ownerID string, startDate, endDate *time.Time) error {
	if err := s.regenerate(ctx, models.EntityProject, projectID, models.EventProjectStart, ownerID,
		fmt.Sprintf("%s begins", name), startDate, s.cfg.ProjectStartReminder); err != nil {
		return err
	}
	return s.regenerate(ctx, models.EntityProject, projectID, models.EventProjectEnd, ownerID,
		fmt.Sprintf("%s ends", name), endDate, s.cfg.ProjectEndReminder)
}

// TaskSaved regenerates the task's deadline event.
func (s *EventGeneratorService) TaskSaved(ctx context.Context, taskID, title, assigneeID string, deadline *time.Time) error {
	if err := s.regenerate(ctx, models.EntityTask, taskID, models.EventTaskDeadline, assigneeID,
		fmt.Sprintf("%s due", title), deadline, s.cfg.TaskDeadlineReminder); err != nil {
		return err
	}
	if deadline != nil {
		s.notify(models.EventTaskDeadline, taskID, assigneeID)
	}
	return nil
}

// DeliverableSubmitted inserts a due event offset from the submission
// time. Deliverable events are not regenerated, only inserted.
func (s *EventGeneratorService) DeliverableSubmitted(ctx context.Context, deliverableID, name, ownerID string, submittedAt time.Time) error {
	due := submittedAt.Add(s.cfg.DeliverableDueOffset)
	event := &models.CalendarEvent{
		UserID:          ownerID,
		Title:           fmt.Sprintf("%s review due", name),
		EventType:       models.EventDeliverableDue,
		StartTime:       due,
		EndTime:         due.Add(time.Hour),
		ReminderMinutes: int(s.cfg.DeliverableDueReminder.Minutes()),
	}
	event.SetEntity(models.EntityRef{Kind: models.EntityDeliverable, ID: deliverableID})

	if err := s.repo.Create(ctx, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deliverable event")
	}
	s.invalidateAgenda(ctx, ownerID)
	s.notify(models.EventDeliverableDue, deliverableID, ownerID)
	return nil
}

// EntityDeleted removes every derived event for the entity. The remote
// mirror is left alone; orphaned remote copies are disposable.
func (s *EventGeneratorService) EntityDeleted(ctx context.Context, kind models.EntityType, entityID string) (int64, error) {
	// owners are collected up front so their cached agendas can be
	// dropped once the rows are gone
	owners := map[string]struct{}{}
	if existing, err := s.repo.ListByEntity(ctx, kind, entityID); err == nil {
		for _, e := range existing {
			owners[e.UserID] = struct{}{}
		}
	}

	removed, err := s.repo.DeleteByEntity(ctx, kind, entityID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete derived events")
	}
	if removed > 0 {
		for owner := range owners {
			s.invalidateAgenda(ctx, owner)
		}
		s.logger.Info("removed derived events for deleted entity",
			zap.String("entity_kind", string(kind)),
			zap.String("entity_id", entityID),
			zap.Int64("removed", removed))
	}
	return removed, nil
}

// regenerate drops the existing derived event for the pair and inserts
// a fresh all-day event when the scheduling date is populated. A nil
// date only clears.
func (s *EventGeneratorService) regenerate(ctx context.Context, kind models.EntityType, entityID string, eventType models.EventType, userID, title string, date *time.Time, reminder time.Duration) error {
	removed, err := s.repo.DeleteByEntityType(ctx, kind, entityID, eventType)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear derived event")
	}
	if date == nil {
		if removed > 0 {
			s.invalidateAgenda(ctx, userID)
		}
		return nil
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	event := &models.CalendarEvent{
		UserID:          userID,
		Title:           title,
		EventType:       eventType,
		StartTime:       day,
		EndTime:         day,
		AllDay:          true,
		ReminderMinutes: int(reminder.Minutes()),
	}
	event.SetEntity(models.EntityRef{Kind: kind, ID: entityID})

	if err := s.repo.Create(ctx, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create derived event")
	}
	s.invalidateAgenda(ctx, userID)
	return nil
}

func (s *EventGeneratorService) invalidateAgenda(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, "agenda:"+userID+":*")
	}
}

func (s *EventGeneratorService) notify(eventType models.EventType, entityID, userID string) {
	if s.dispatcher == nil || !s.cfg.NotifyOnDeadlineEvents {
		return
	}
	err := s.dispatcher.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "reminder_notification",
		Payload: map[string]string{
			"event_type": string(eventType),
			"entity_id":  entityID,
			"user_id":    userID,
		},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue reminder notification",
			zap.String("entity_id", entityID), zap.Error(err))
	}
}
