package models

import "time"

// EventType classifies a calendar event.
type EventType string

const (
	EventProjectStart   EventType = "PROJECT_START"
	EventProjectEnd     EventType = "PROJECT_END"
	EventTaskDeadline   EventType = "TASK_DEADLINE"
	EventDeliverableDue EventType = "DELIVERABLE_DUE"
	EventMeeting        EventType = "MEETING"
	EventReview         EventType = "REVIEW"
	EventCustom         EventType = "CUSTOM"
)

// Valid reports whether the event type is one of the known values.
func (t EventType) Valid() bool {
	switch t {
	case EventProjectStart, EventProjectEnd, EventTaskDeadline,
		EventDeliverableDue, EventMeeting, EventReview, EventCustom:
		return true
	}
	return false
}

// DefaultColor returns the display color assigned to the type when the
// caller does not override it.
func (t EventType) DefaultColor() string {
	switch t {
	case EventProjectStart:
		return "#2e7d32"
	case EventProjectEnd:
		return "#c62828"
	case EventTaskDeadline:
		return "#ef6c00"
	case EventDeliverableDue:
		return "#6a1b9a"
	case EventMeeting:
		return "#1565c0"
	case EventReview:
		return "#00838f"
	default:
		return "#546e7a"
	}
}

// EntityType identifies the kind of entity a derived event comes from.
type EntityType string

const (
	EntityProject     EntityType = "PROJECT"
	EntityTask        EntityType = "TASK"
	EntityDeliverable EntityType = "DELIVERABLE"
)

// Valid reports whether the entity type is a known kind.
func (t EntityType) Valid() bool {
	switch t {
	case EntityProject, EntityTask, EntityDeliverable:
		return true
	}
	return false
}

// EntityRef is a weak reference to the entity a derived event was
// generated from. It is not a foreign key: the referenced entity's
// lifecycle belongs to its own module.
type EntityRef struct {
	Kind EntityType `json:"kind"`
	ID   string     `json:"id"`
}

// CalendarEvent is the core calendar entity. The local row is
// authoritative; the provider copy identified by RemoteEventID is a
// best-effort mirror.
type CalendarEvent struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	EventType   EventType `db:"event_type" json:"event_type"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	AllDay      bool      `db:"all_day" json:"all_day"`
	Color       string    `db:"color" json:"color"`
	Location    *string   `db:"location" json:"location,omitempty"`
	// ReminderMinutes is the reminder lead time pushed to the provider.
	ReminderMinutes int `db:"reminder_minutes" json:"reminder_minutes"`

	// EntityKind and EntityID are set together for derived events and
	// both empty for manual ones, never one without the other.
	EntityKind *EntityType `db:"entity_kind" json:"entity_kind,omitempty"`
	EntityID   *string     `db:"entity_id" json:"entity_id,omitempty"`

	RemoteEventID    string `db:"remote_event_id" json:"remote_event_id,omitempty"`
	RemoteCalendarID string `db:"remote_calendar_id" json:"remote_calendar_id,omitempty"`
	IsSynced         bool   `db:"is_synced" json:"is_synced"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Entity returns the provenance reference for derived events.
func (e *CalendarEvent) Entity() (EntityRef, bool) {
	if e.EntityKind == nil || e.EntityID == nil {
		return EntityRef{}, false
	}
	return EntityRef{Kind: *e.EntityKind, ID: *e.EntityID}, true
}

// SetEntity attaches provenance, keeping the both-or-neither invariant.
func (e *CalendarEvent) SetEntity(ref EntityRef) {
	kind := ref.Kind
	id := ref.ID
	e.EntityKind = &kind
	e.EntityID = &id
}

// RemoteEvent is the read-only provider-side representation returned by
// window fetches. It is never merged into the local store.
type RemoteEvent struct {
	RemoteEventID string    `json:"remote_event_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	AllDay        bool      `json:"all_day"`
	Location      string    `json:"location,omitempty"`
}
