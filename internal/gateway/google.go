package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/oselz/projecthub-api/internal/models"
	"github.com/oselz/projecthub-api/pkg/config"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
)

// GoogleGateway mirrors local events into a Google Calendar.
type GoogleGateway struct {
	service        *calendar.Service
	calendarID     string
	requestTimeout time.Duration
	reminderMethod string
	logger         *zap.Logger
}

// NewGoogleGateway builds a gateway over the Google Calendar API using
// service account credentials from the configured file.
func NewGoogleGateway(ctx context.Context, cfg config.CalendarConfig, logger *zap.Logger) (*GoogleGateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.ClientOption{option.WithScopes(calendar.CalendarScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteSync.Code, appErrors.ErrRemoteSync.Status, "failed to create calendar client")
	}

	return &GoogleGateway{
		service:        service,
		calendarID:     cfg.CalendarID,
		requestTimeout: cfg.RequestTimeout,
		reminderMethod: cfg.ReminderMethod,
		logger:         logger,
	}, nil
}

// CalendarID identifies the provider-side calendar being mirrored to.
func (g *GoogleGateway) CalendarID() string {
	return g.calendarID
}

// Insert mirrors a local event remotely and returns the provider's id.
func (g *GoogleGateway) Insert(ctx context.Context, event *models.CalendarEvent) (string, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	created, err := g.service.Events.Insert(g.calendarID, g.toWire(event)).Context(ctx).Do()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrRemoteSync.Code, appErrors.ErrRemoteSync.Status, "remote insert failed")
	}
	return created.Id, nil
}

// Update overwrites the remote copy identified by remoteID.
func (g *GoogleGateway) Update(ctx context.Context, remoteID string, event *models.CalendarEvent) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	if _, err := g.service.Events.Update(g.calendarID, remoteID, g.toWire(event)).Context(ctx).Do(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteSync.Code, appErrors.ErrRemoteSync.Status, "remote update failed")
	}
	return nil
}

// Delete removes the remote copy. An already-gone remote object counts
// as success since the local delete proceeds regardless.
func (g *GoogleGateway) Delete(ctx context.Context, remoteID string) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	if err := g.service.Events.Delete(g.calendarID, remoteID).Context(ctx).Do(); err != nil {
		if isGone(err) {
			g.logger.Debug("remote event already absent", zap.String("remote_event_id", remoteID))
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrRemoteSync.Code, appErrors.ErrRemoteSync.Status, "remote delete failed")
	}
	return nil
}

// List returns provider events inside the window, ordered by start time.
func (g *GoogleGateway) List(ctx context.Context, from, to time.Time) ([]models.RemoteEvent, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	call := g.service.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	result, err := call.Do()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteSync.Code, appErrors.ErrRemoteSync.Status, "remote list failed")
	}

	events := make([]models.RemoteEvent, 0, len(result.Items))
	for _, item := range result.Items {
		start, end, allDay, err := decodeWire(item.Start, item.End)
		if err != nil {
			g.logger.Warn("skipping remote event with unparseable times",
				zap.String("remote_event_id", item.Id), zap.Error(err))
			continue
		}
		events = append(events, models.RemoteEvent{
			RemoteEventID: item.Id,
			Title:         item.Summary,
			Description:   item.Description,
			StartTime:     start,
			EndTime:       end,
			AllDay:        allDay,
			Location:      item.Location,
		})
	}
	return events, nil
}

func (g *GoogleGateway) toWire(event *models.CalendarEvent) *calendar.Event {
	wire := &calendar.Event{
		Summary:     event.Title,
		Description: event.Description,
		Start:       encodeStart(event),
		End:         encodeEnd(event),
	}
	if event.Location != nil {
		wire.Location = *event.Location
	}
	if event.ReminderMinutes > 0 {
		method := g.reminderMethod
		if method == "" {
			method = "popup"
		}
		wire.Reminders = &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: method, Minutes: int64(event.ReminderMinutes)},
			},
			ForceSendFields: []string{"UseDefault"},
		}
	}
	return wire
}

func (g *GoogleGateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.requestTimeout)
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}
