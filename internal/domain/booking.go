package domain

import (
	"context"
	"time"
)

// Booking is an attendee's reservation for an event. At most one booking
// exists per (EventID, Email) pair.
type Booking struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBooking creates a new Booking. ID and timestamps are set by the repository on create.
func NewBooking(eventID, email string) *Booking {
	return &Booking{
		EventID: eventID,
		Email:   email,
	}
}

// BookingRepository defines storage operations for bookings.
// Create returns ErrDuplicateBooking when the (event, email) pair already exists.
type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByEventAndEmail(ctx context.Context, eventID, email string) (*Booking, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Booking, error)
	CountByEventID(ctx context.Context, eventID string) (int64, error)
}

// BookingService is the booking ledger.
type BookingService interface {
	CreateBooking(ctx context.Context, eventID, email string) (*Booking, error)
	ListBookingsForEvent(ctx context.Context, eventID string) ([]*Booking, error)
	CountBookingsForEvent(ctx context.Context, eventID string) (int64, error)
}
