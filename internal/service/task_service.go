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

type taskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
}

type taskProjectLookup interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

// TaskService manages tasks and their derived deadline events.
type TaskService struct {
	repo      taskRepository
	projects  taskProjectLookup
	generator scheduleEventGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(repo taskRepository, projects taskProjectLookup, generator scheduleEventGenerator, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TaskService{repo: repo, projects: projects, generator: generator, validator: validate, logger: logger}
}

// CreateTaskRequest is the payload for creating a task.
type CreateTaskRequest struct {
	ProjectID   string     `json:"project_id" validate:"required,uuid4"`
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	AssigneeID  string     `json:"assignee_id" validate:"omitempty,uuid4"`
	Deadline    *time.Time `json:"deadline"`
}

// UpdateTaskRequest is the payload for patching a task.
type UpdateTaskRequest struct {
	Title         *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string    `json:"description" validate:"omitempty,max=2000"`
	Status        *string    `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	AssigneeID    *string    `json:"assignee_id" validate:"omitempty,uuid4"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
}

// Create persists a task and regenerates its deadline event.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest, creatorID string) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	if _, err := s.projects.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch project")
	}

	assignee := req.AssigneeID
	if assignee == "" {
		assignee = creatorID
	}
	task := &models.Task{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskTodo,
		AssigneeID:  assignee,
		Deadline:    req.Deadline,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}

	s.regenerateEvents(ctx, task)
	return task, nil
}

// Update patches a task and regenerates its deadline event when the
// deadline or title changed.
func (s *TaskService) Update(ctx context.Context, id, requesterID string, req UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.AssigneeID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "task is assigned to another user")
	}

	scheduleChanged := req.Deadline != nil || req.ClearDeadline || req.Title != nil
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = models.TaskStatus(*req.Status)
	}
	if req.AssigneeID != nil {
		task.AssigneeID = *req.AssigneeID
	}
	if req.ClearDeadline {
		task.Deadline = nil
	}
	if req.Deadline != nil {
		task.Deadline = req.Deadline
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}

	if scheduleChanged {
		s.regenerateEvents(ctx, task)
	}
	return task, nil
}

// Get returns a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	return s.load(ctx, id)
}

// List returns tasks matching the filter.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Delete removes a task along with its derived calendar events.
func (s *TaskService) Delete(ctx context.Context, id, requesterID string) error {
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if task.AssigneeID != requesterID {
		return appErrors.Clone(appErrors.ErrUnauthorized, "task is assigned to another user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}

	if s.generator != nil {
		if _, err := s.generator.EntityDeleted(ctx, models.EntityTask, id); err != nil {
			s.logger.Warn("failed to remove derived task events", zap.String("task_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *TaskService) load(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch task")
	}
	return task, nil
}

func (s *TaskService) regenerateEvents(ctx context.Context, task *models.Task) {
	if s.generator == nil {
		return
	}
	if err := s.generator.TaskSaved(ctx, task.ID, task.Title, task.AssigneeID, task.Deadline); err != nil {
		s.logger.Warn("failed to regenerate task events", zap.String("task_id", task.ID), zap.Error(err))
	}
}
