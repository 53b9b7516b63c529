package domain

import (
	"context"
	"time"
)

// EventMode is how an event is attended.
type EventMode string

const (
	ModeOnline  EventMode = "online"
	ModeOffline EventMode = "offline"
	ModeHybrid  EventMode = "hybrid"
)

// Valid reports whether m is one of the known modes.
func (m EventMode) Valid() bool {
	switch m {
	case ModeOnline, ModeOffline, ModeHybrid:
		return true
	}
	return false
}

// Event is a canonical catalog record. Date is always YYYY-MM-DD and Time is
// always 24-hour HH:MM; Slug is unique across all events.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Overview    string    `json:"overview"`
	Image       string    `json:"image"`
	Venue       string    `json:"venue"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Mode        EventMode `json:"mode"`
	Audience    string    `json:"audience"`
	Agenda      []string  `json:"agenda"`
	Organizer   string    `json:"organizer"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RawEvent is an event submission as received from a caller, before
// validation and normalization. Date and Time are free-form.
type RawEvent struct {
	Title       string   `json:"title" yaml:"title" validate:"required"`
	Description string   `json:"description" yaml:"description" validate:"required"`
	Overview    string   `json:"overview" yaml:"overview" validate:"required"`
	Image       string   `json:"image" yaml:"image" validate:"required"`
	Venue       string   `json:"venue" yaml:"venue" validate:"required"`
	Location    string   `json:"location" yaml:"location" validate:"required"`
	Date        string   `json:"date" yaml:"date" validate:"required"`
	Time        string   `json:"time" yaml:"time" validate:"required"`
	Mode        string   `json:"mode" yaml:"mode" validate:"required,oneof=online offline hybrid"`
	Audience    string   `json:"audience" yaml:"audience" validate:"required"`
	Agenda      []string `json:"agenda" yaml:"agenda" validate:"required,min=1,dive,required"`
	Organizer   string   `json:"organizer" yaml:"organizer" validate:"required"`
	Tags        []string `json:"tags" yaml:"tags" validate:"required,min=1,dive,required"`
}

// EventRepository defines the interface for event storage.
// Create and Update return ErrConflict when the slug is already taken.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	Update(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	List(ctx context.Context) ([]*Event, error)
	// ListByTags returns up to limit events other than excludeSlug that share at least one tag.
	ListByTags(ctx context.Context, excludeSlug string, tags []string, limit int) ([]*Event, error)
}

// EventService is the event catalog: it canonicalizes submissions and serves lookups.
type EventService interface {
	CreateEvent(ctx context.Context, raw *RawEvent) (*Event, error)
	UpdateEvent(ctx context.Context, id string, raw *RawEvent) (*Event, error)
	GetEventByID(ctx context.Context, id string) (*Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	GetSimilarEvents(ctx context.Context, slug string) ([]*Event, error)
}

// AssetUploader stores binary image data and returns a stable URI for it.
// The catalog treats the URI as an opaque required field.
type AssetUploader interface {
	Upload(ctx context.Context, name string, data []byte) (uri string, err error)
}

// EventFeed loads a batch of raw event submissions from an external source
// such as a file path or URL.
type EventFeed interface {
	Fetch(ctx context.Context, source string) ([]*RawEvent, error)
}
