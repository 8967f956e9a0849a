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

type projectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
}

// scheduleEventGenerator is the slice of the event generator the
// project/task/deliverable services depend on.
type scheduleEventGenerator interface {
	ProjectSaved(ctx context.Context, projectID, name, ownerID string, startDate, endDate *time.Time) error
	TaskSaved(ctx context.Context, taskID, title, assigneeID string, deadline *time.Time) error
	DeliverableSubmitted(ctx context.Context, deliverableID, name, ownerID string, submittedAt time.Time) error
	EntityDeleted(ctx context.Context, kind models.EntityType, entityID string) (int64, error)
}

// ProjectService manages projects and their derived calendar events.
type ProjectService struct {
	repo      projectRepository
	generator scheduleEventGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(repo projectRepository, generator scheduleEventGenerator, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProjectService{repo: repo, generator: generator, validator: validate, logger: logger}
}

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Status      string     `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// UpdateProjectRequest is the payload for patching a project.
type UpdateProjectRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	ClearDates  bool       `json:"clear_dates"`
}

// Create persists a project and regenerates its schedule events.
func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest, ownerID string) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}

	status := models.ProjectPlanning
	if req.Status != "" {
		status = models.ProjectStatus(req.Status)
	}
	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		OwnerID:     ownerID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}

	s.regenerateEvents(ctx, project)
	return project, nil
}

// Update patches a project and regenerates its schedule events when
// scheduling fields changed.
func (s *ProjectService) Update(ctx context.Context, id, requesterID string, req UpdateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "project belongs to another user")
	}

	datesChanged := req.StartDate != nil || req.EndDate != nil || req.ClearDates
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = models.ProjectStatus(*req.Status)
	}
	if req.ClearDates {
		project.StartDate = nil
		project.EndDate = nil
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	if project.StartDate != nil && project.EndDate != nil && project.EndDate.Before(*project.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, project); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}

	if datesChanged || req.Name != nil {
		s.regenerateEvents(ctx, project)
	}
	return project, nil
}

// Get returns a project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.load(ctx, id)
}

// List returns projects matching the filter.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	projects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Delete removes a project along with its derived calendar events.
func (s *ProjectService) Delete(ctx context.Context, id, requesterID string) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if project.OwnerID != requesterID {
		return appErrors.Clone(appErrors.ErrUnauthorized, "project belongs to another user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete project")
	}

	if s.generator != nil {
		if _, err := s.generator.EntityDeleted(ctx, models.EntityProject, id); err != nil {
			s.logger.Warn("failed to remove derived project events", zap.String("project_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *ProjectService) load(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch project")
	}
	return project, nil
}

func (s *ProjectService) regenerateEvents(ctx context.Context, project *models.Project) {
	if s.generator == nil {
		return
	}
	if err := s.generator.ProjectSaved(ctx, project.ID, project.Name, project.OwnerID, project.StartDate, project.EndDate); err != nil {
		s.logger.Warn("failed to regenerate project events", zap.String("project_id", project.ID), zap.Error(err))
	}
}
