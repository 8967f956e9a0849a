package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselz/projecthub-api/pkg/config"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
	"github.com/oselz/projecthub-api/pkg/storage"
)

func newStoredAgendaFixture(t *testing.T) *AgendaService {
	t.Helper()
	repo := newFakeGeneratorRepo()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	agenda := NewAgendaService(repo, nil, config.AgendaConfig{DefaultLimit: 10}, nil)
	return agenda.WithStorage(store, signer)
}

func TestDownloadResolvesOwnToken(t *testing.T) {
	agenda := newStoredAgendaFixture(t)

	saved, err := agenda.ExportToFile(context.Background(), "user-1", 10, FormatCSV)
	require.NoError(t, err)

	payload, contentType, err := agenda.Download(saved.Token, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.NotEmpty(t, payload)
}

func TestDownloadRejectsForeignToken(t *testing.T) {
	agenda := newStoredAgendaFixture(t)

	saved, err := agenda.ExportToFile(context.Background(), "user-1", 10, FormatCSV)
	require.NoError(t, err)

	_, _, err = agenda.Download(saved.Token, "user-2")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code, "a valid token must not open another user's export")
}
