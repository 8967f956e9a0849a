package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselz/projecthub-api/internal/models"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
)

type fakeProjectRepo struct {
	projects map[string]*models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[string]*models.Project{}}
}

func (f *fakeProjectRepo) Create(_ context.Context, project *models.Project) error {
	stored := *project
	f.projects[project.ID] = &stored
	return nil
}

func (f *fakeProjectRepo) Update(_ context.Context, project *models.Project) error {
	if _, ok := f.projects[project.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *project
	f.projects[project.ID] = &stored
	return nil
}

func (f *fakeProjectRepo) GetByID(_ context.Context, id string) (*models.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *project
	return &copied, nil
}

func (f *fakeProjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.projects[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeProjectRepo) List(context.Context, models.ProjectFilter) ([]models.Project, int, error) {
	var out []models.Project
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, len(out), nil
}

type recordingGenerator struct {
	projectSaves int
	taskSaves    int
	submissions  int
	deletions    []string
}

func (r *recordingGenerator) ProjectSaved(_ context.Context, projectID, _, _ string, _, _ *time.Time) error {
	r.projectSaves++
	return nil
}

func (r *recordingGenerator) TaskSaved(context.Context, string, string, string, *time.Time) error {
	r.taskSaves++
	return nil
}

func (r *recordingGenerator) DeliverableSubmitted(context.Context, string, string, string, time.Time) error {
	r.submissions++
	return nil
}

func (r *recordingGenerator) EntityDeleted(_ context.Context, kind models.EntityType, entityID string) (int64, error) {
	r.deletions = append(r.deletions, fmt.Sprintf("%s/%s", kind, entityID))
	return 1, nil
}

func TestProjectCreateTriggersGenerator(t *testing.T) {
	repo := newFakeProjectRepo()
	gen := &recordingGenerator{}
	svc := NewProjectService(repo, gen, nil, nil)

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	project, err := svc.Create(context.Background(), CreateProjectRequest{
		Name:      "Atlas",
		StartDate: &start,
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.ProjectPlanning, project.Status)
	assert.Equal(t, "user-1", project.OwnerID)
	assert.Equal(t, 1, gen.projectSaves)
}

func TestProjectCreateRejectsInvertedDates(t *testing.T) {
	svc := NewProjectService(newFakeProjectRepo(), &recordingGenerator{}, nil, nil)

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err := svc.Create(context.Background(), CreateProjectRequest{
		Name:      "Backwards",
		StartDate: &start,
		EndDate:   &end,
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProjectUpdateRegeneratesOnDateChange(t *testing.T) {
	repo := newFakeProjectRepo()
	gen := &recordingGenerator{}
	svc := NewProjectService(repo, gen, nil, nil)

	project, err := svc.Create(context.Background(), CreateProjectRequest{Name: "Atlas"}, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, gen.projectSaves)

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Update(context.Background(), project.ID, "user-1", UpdateProjectRequest{StartDate: &start})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.projectSaves)

	// a status-only patch touches no scheduling field
	status := string(models.ProjectActive)
	_, err = svc.Update(context.Background(), project.ID, "user-1", UpdateProjectRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.projectSaves)
}

func TestProjectUpdateRejectsNonOwner(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := NewProjectService(repo, &recordingGenerator{}, nil, nil)

	project, err := svc.Create(context.Background(), CreateProjectRequest{Name: "Atlas"}, "user-1")
	require.NoError(t, err)

	name := "Hijacked"
	_, err = svc.Update(context.Background(), project.ID, "user-2", UpdateProjectRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestProjectDeleteRemovesDerivedEvents(t *testing.T) {
	repo := newFakeProjectRepo()
	gen := &recordingGenerator{}
	svc := NewProjectService(repo, gen, nil, nil)

	project, err := svc.Create(context.Background(), CreateProjectRequest{Name: "Atlas"}, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), project.ID, "user-1"))
	require.Len(t, gen.deletions, 1)
	assert.Equal(t, "PROJECT/"+project.ID, gen.deletions[0])
}
