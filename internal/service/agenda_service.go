package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oselz/projecthub-api/internal/models"
	"github.com/oselz/projecthub-api/pkg/config"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
	"github.com/oselz/projecthub-api/pkg/export"
	"github.com/oselz/projecthub-api/pkg/storage"
)

type agendaEventLister interface {
	ListUpcoming(ctx context.Context, userID string, limit int) ([]models.CalendarEvent, error)
}

// AgendaService serves cached upcoming agendas and file exports.
type AgendaService struct {
	events agendaEventLister
	cache  *CacheService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	config config.AgendaConfig
	logger *zap.Logger
}

// NewAgendaService constructs an AgendaService instance. Store and
// signer are optional; without them only direct streaming exports work.
func NewAgendaService(events agendaEventLister, cache *CacheService, cfg config.AgendaConfig, logger *zap.Logger) *AgendaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgendaService{
		events: events,
		cache:  cache,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		config: cfg,
		logger: logger,
	}
}

// WithStorage enables saved exports with signed download links.
func (s *AgendaService) WithStorage(store *storage.LocalStorage, signer *storage.SignedURLSigner) *AgendaService {
	s.store = store
	s.signer = signer
	return s
}

// Upcoming returns the next events for a user, served from cache when
// possible. Cache entries are invalidated on every event write.
func (s *AgendaService) Upcoming(ctx context.Context, userID string, limit int) ([]models.CalendarEvent, error) {
	if limit < 1 {
		limit = s.config.DefaultLimit
	}
	key := agendaCacheKey(userID, limit)

	if s.cache != nil && s.cache.Enabled() {
		var cached []models.CalendarEvent
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	events, err := s.events.ListUpcoming(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, events, s.config.CacheTTL); err != nil {
			s.logger.Warn("failed to cache agenda", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return events, nil
}

// ExportFormat names a supported agenda export encoding.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// Export renders the user's upcoming agenda as a downloadable file and
// returns the payload with its content type.
func (s *AgendaService) Export(ctx context.Context, userID string, limit int, format ExportFormat) ([]byte, string, error) {
	events, err := s.Upcoming(ctx, userID, limit)
	if err != nil {
		return nil, "", err
	}

	dataset := agendaDataset(events)
	switch format {
	case FormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case FormatPDF:
		payload, err := s.pdf.Render(dataset, "Upcoming Agenda")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// SavedExport describes a stored export reachable through a signed token.
type SavedExport struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportToFile renders the agenda, stores it on disk and returns a
// signed download token bound to the requesting user.
func (s *AgendaService) ExportToFile(ctx context.Context, userID string, limit int, format ExportFormat) (*SavedExport, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "saved exports are not enabled")
	}
	payload, _, err := s.Export(ctx, userID, limit, format)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("agenda/%s-%d.%s", userID, time.Now().UTC().Unix(), format)
	if _, err := s.store.Save(filename, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(userID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	return &SavedExport{Token: token, Filename: filename, ExpiresAt: expiresAt}, nil
}

// Download resolves a signed token back to the stored export payload.
// The token is bound to the user who saved the export; anyone else gets
// rejected even with a valid signature.
func (s *AgendaService) Download(token, requesterID string) ([]byte, string, error) {
	if s.store == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "saved exports are not enabled")
	}
	ownerID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	if ownerID != requesterID {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "download token belongs to another user")
	}
	payload, err := s.store.Read(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	contentType := "text/csv"
	if strings.HasSuffix(relPath, ".pdf") {
		contentType = "application/pdf"
	}
	return payload, contentType, nil
}

// CleanupExports drops stored exports older than the retention TTL.
func (s *AgendaService) CleanupExports(ttl time.Duration) {
	if s.store == nil {
		return
	}
	deleted, err := s.store.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("failed to clean up stored exports", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("cleaned up stored exports", zap.Int("removed", len(deleted)))
	}
}

func agendaCacheKey(userID string, limit int) string {
	return fmt.Sprintf("agenda:%s:%d", userID, limit)
}

func agendaDataset(events []models.CalendarEvent) export.Dataset {
	headers := []string{"Title", "Type", "Start", "End", "All Day", "Synced"}
	rows := make([]map[string]string, 0, len(events))
	for _, event := range events {
		startFmt, endFmt := time.RFC3339, time.RFC3339
		if event.AllDay {
			startFmt, endFmt = "2006-01-02", "2006-01-02"
		}
		rows = append(rows, map[string]string{
			"Title":   event.Title,
			"Type":    string(event.EventType),
			"Start":   event.StartTime.Format(startFmt),
			"End":     event.EndTime.Format(endFmt),
			"All Day": fmt.Sprintf("%t", event.AllDay),
			"Synced":  fmt.Sprintf("%t", event.IsSynced),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
