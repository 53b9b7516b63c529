// Package mongodb stores events and bookings as MongoDB documents.
package mongodb

import (
	"time"

	"devevent/internal/domain"
)

const (
	eventsCollection   = "events"
	bookingsCollection = "bookings"
)

type eventDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Slug        string    `bson:"slug"`
	Description string    `bson:"description"`
	Overview    string    `bson:"overview"`
	Image       string    `bson:"image"`
	Venue       string    `bson:"venue"`
	Location    string    `bson:"location"`
	Date        string    `bson:"date"`
	Time        string    `bson:"time"`
	Mode        string    `bson:"mode"`
	Audience    string    `bson:"audience"`
	Agenda      []string  `bson:"agenda"`
	Organizer   string    `bson:"organizer"`
	Tags        []string  `bson:"tags"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func newEventDocument(e *domain.Event) *eventDocument {
	return &eventDocument{
		ID:          e.ID,
		Title:       e.Title,
		Slug:        e.Slug,
		Description: e.Description,
		Overview:    e.Overview,
		Image:       e.Image,
		Venue:       e.Venue,
		Location:    e.Location,
		Date:        e.Date,
		Time:        e.Time,
		Mode:        string(e.Mode),
		Audience:    e.Audience,
		Agenda:      e.Agenda,
		Organizer:   e.Organizer,
		Tags:        e.Tags,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (d *eventDocument) toDomain() *domain.Event {
	return &domain.Event{
		ID:          d.ID,
		Title:       d.Title,
		Slug:        d.Slug,
		Description: d.Description,
		Overview:    d.Overview,
		Image:       d.Image,
		Venue:       d.Venue,
		Location:    d.Location,
		Date:        d.Date,
		Time:        d.Time,
		Mode:        domain.EventMode(d.Mode),
		Audience:    d.Audience,
		Agenda:      d.Agenda,
		Organizer:   d.Organizer,
		Tags:        d.Tags,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type bookingDocument struct {
	ID        string    `bson:"_id"`
	EventID   string    `bson:"event_id"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *bookingDocument) toDomain() *domain.Booking {
	return &domain.Booking{
		ID:        d.ID,
		EventID:   d.EventID,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// now returns the current time at the precision MongoDB stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
