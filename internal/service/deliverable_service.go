package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oselz/projecthub-api/internal/models"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
)

type deliverableRepository interface {
	Create(ctx context.Context, deliverable *models.Deliverable) error
	Update(ctx context.Context, deliverable *models.Deliverable) error
	GetByID(ctx context.Context, id string) (*models.Deliverable, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.DeliverableFilter) ([]models.Deliverable, int, error)
}

// DeliverableService manages deliverables. Submitting one schedules a
// review-due calendar event.
type DeliverableService struct {
	repo      deliverableRepository
	projects  taskProjectLookup
	generator scheduleEventGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDeliverableService constructs a DeliverableService instance.
func NewDeliverableService(repo deliverableRepository, projects taskProjectLookup, generator scheduleEventGenerator, validate *validator.Validate, logger *zap.Logger) *DeliverableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DeliverableService{repo: repo, projects: projects, generator: generator, validator: validate, logger: logger}
}

// CreateDeliverableRequest is the payload for creating a deliverable.
type CreateDeliverableRequest struct {
	ProjectID   string `json:"project_id" validate:"required,uuid4"`
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// UpdateDeliverableRequest is the payload for patching a deliverable.
type UpdateDeliverableRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *string `json:"status" validate:"omitempty,oneof=SUBMITTED IN_REVIEW APPROVED REJECTED"`
}

// Create persists a new deliverable in SUBMITTED state and schedules
// its review-due event.
func (s *DeliverableService) Create(ctx context.Context, req CreateDeliverableRequest, ownerID string) (*models.Deliverable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deliverable payload")
	}

	if _, err := s.projects.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch project")
	}

	now := time.Now().UTC()
	deliverable := &models.Deliverable{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.DeliverableSubmitted,
		OwnerID:     ownerID,
		SubmittedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, deliverable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create deliverable")
	}

	if s.generator != nil {
		if err := s.generator.DeliverableSubmitted(ctx, deliverable.ID, deliverable.Name, deliverable.OwnerID, now); err != nil {
			s.logger.Warn("failed to schedule deliverable review event", zap.String("deliverable_id", deliverable.ID), zap.Error(err))
		}
	}
	return deliverable, nil
}

// Update patches a deliverable's metadata and review status.
func (s *DeliverableService) Update(ctx context.Context, id, requesterID string, req UpdateDeliverableRequest) (*models.Deliverable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deliverable payload")
	}

	deliverable, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if deliverable.OwnerID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "deliverable belongs to another user")
	}

	if req.Name != nil {
		deliverable.Name = *req.Name
	}
	if req.Description != nil {
		deliverable.Description = *req.Description
	}
	if req.Status != nil {
		deliverable.Status = models.DeliverableStatus(*req.Status)
	}
	deliverable.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, deliverable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deliverable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update deliverable")
	}
	return deliverable, nil
}

// Get returns a deliverable by id.
func (s *DeliverableService) Get(ctx context.Context, id string) (*models.Deliverable, error) {
	return s.load(ctx, id)
}

// List returns deliverables matching the filter.
func (s *DeliverableService) List(ctx context.Context, filter models.DeliverableFilter) ([]models.Deliverable, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	deliverables, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deliverables")
	}
	return deliverables, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Delete removes a deliverable along with its derived calendar events.
func (s *DeliverableService) Delete(ctx context.Context, id, requesterID string) error {
	deliverable, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if deliverable.OwnerID != requesterID {
		return appErrors.Clone(appErrors.ErrUnauthorized, "deliverable belongs to another user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "deliverable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete deliverable")
	}

	if s.generator != nil {
		if _, err := s.generator.EntityDeleted(ctx, models.EntityDeliverable, id); err != nil {
			s.logger.Warn("failed to remove derived deliverable events", zap.String("deliverable_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *DeliverableService) load(ctx context.Context, id string) (*models.Deliverable, error) {
	deliverable, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "deliverable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch deliverable")
	}
	return deliverable, nil
}
