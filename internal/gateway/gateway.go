package gateway

import (
	"context"
	"time"

	"github.com/oselz/projecthub-api/internal/models"
)

// CalendarGateway is the synchronous client boundary to the external
// calendar provider. Implementations do not retry; a failed call comes
// back as a typed error and the caller decides what to do with it. The
// provider copy is a disposable mirror, never merged into local state.
type CalendarGateway interface {
	// Insert mirrors a local event remotely and returns the provider's
	// event id.
	Insert(ctx context.Context, event *models.CalendarEvent) (string, error)
	// Update overwrites the remote copy identified by remoteID.
	Update(ctx context.Context, remoteID string, event *models.CalendarEvent) error
	// Delete removes the remote copy. A remote object that is already
	// gone counts as success: the local delete has to proceed anyway.
	Delete(ctx context.Context, remoteID string) error
	// List returns the provider's events inside the window, read-only.
	List(ctx context.Context, from, to time.Time) ([]models.RemoteEvent, error)
	// CalendarID identifies the provider-side calendar being mirrored to.
	CalendarID() string
}
