package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"devevent/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type bookingService struct {
	bookingRepo    domain.BookingRepository
	eventRepo      domain.EventRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewBookingService returns the booking ledger. emailService may be nil, in
// which case no confirmation is sent.
func NewBookingService(bookingRepo domain.BookingRepository, eventRepo domain.EventRepository, emailService domain.EmailService, logger *slog.Logger, timeout time.Duration) domain.BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bookingService{
		bookingRepo:    bookingRepo,
		eventRepo:      eventRepo,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// NormalizeEmail trims and lower-cases email and checks its shape.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", domain.NewValidationError("email", "must be a valid email address")
	}
	return email, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, eventID, email string) (*domain.Booking, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, domain.NewValidationError("event_id", "is required")
	}

	if _, err := s.bookingRepo.GetByEventAndEmail(ctx, eventID, email); err == nil {
		return nil, domain.ErrDuplicateBooking
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check booking: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotExist
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	booking := domain.NewBooking(eventID, email)
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrDuplicateBooking) {
			return nil, domain.ErrDuplicateBooking
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	s.logger.Info("booking created", "booking_id", booking.ID, "event_id", eventID)

	s.sendConfirmation(ctx, event, booking)
	return booking, nil
}

// sendConfirmation is best-effort; the booking stands whatever happens here.
func (s *bookingService) sendConfirmation(ctx context.Context, event *domain.Event, booking *domain.Booking) {
	if s.emailService == nil {
		return
	}
	data := &domain.BookingConfirmationEmailData{
		Email:      booking.Email,
		EventTitle: event.Title,
		EventSlug:  event.Slug,
		Date:       event.Date,
		Time:       event.Time,
		Venue:      event.Venue,
		Location:   event.Location,
		Mode:       string(event.Mode),
	}
	if err := s.emailService.SendBookingConfirmation(ctx, data); err != nil {
		s.logger.Warn("booking confirmation not sent", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) ListBookingsForEvent(ctx context.Context, eventID string) ([]*domain.Booking, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	bookings, err := s.bookingRepo.ListByEventID(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []*domain.Booking{}
	}
	return bookings, nil
}

func (s *bookingService) CountBookingsForEvent(ctx context.Context, eventID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.bookingRepo.CountByEventID(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}
