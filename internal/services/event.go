package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"devevent/internal/canonical"
	"devevent/internal/domain"
)

// maxSlugAttempts bounds how many slugs a single write tries before giving up
// with ErrConflict.
const maxSlugAttempts = 3

// similarLimit is the maximum number of events GetSimilarEvents returns.
const similarLimit = 3

type eventService struct {
	eventRepo      domain.EventRepository
	logger         *slog.Logger
	stamps         *stampClock
	contextTimeout time.Duration
}

// NewEventService returns the event catalog. A zero timeout disables the
// per-operation deadline.
func NewEventService(eventRepo domain.EventRepository, logger *slog.Logger, timeout time.Duration) domain.EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventService{
		eventRepo:      eventRepo,
		logger:         logger,
		stamps:         processStamps,
		contextTimeout: timeout,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (s *eventService) CreateEvent(ctx context.Context, raw *domain.RawEvent) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := canonical.Event(raw, nil)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, event, s.eventRepo.Create); err != nil {
		return nil, err
	}
	s.logger.Info("event created", "id", event.ID, "slug", event.Slug)
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, raw *domain.RawEvent) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "is required")
	}
	prev, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	event, err := canonical.Event(raw, prev)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, event, s.eventRepo.Update); err != nil {
		return nil, err
	}
	s.logger.Info("event updated", "id", event.ID, "slug", event.Slug)
	return event, nil
}

// save writes event with write, disambiguating its slug when another event
// already holds it. The store's unique constraint is authoritative: a
// conflict reported by write is retried with a fresh suffix. Suffixes always
// hang off the title's slug, never off a slug that already carries one.
func (s *eventService) save(ctx context.Context, event *domain.Event, write func(context.Context, *domain.Event) error) error {
	base := canonical.Slugify(event.Title)
	holder, err := s.eventRepo.GetBySlug(ctx, event.Slug)
	switch {
	case err == nil && holder.ID != event.ID:
		event.Slug = s.disambiguate(base)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("check slug: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err := write(ctx, event)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		if !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("save event: %w", err)
		}
		if attempt == maxSlugAttempts {
			s.logger.Warn("slug conflict, giving up", "slug", base, "attempts", attempt)
			return domain.ErrConflict
		}
		s.logger.Warn("slug conflict, retrying", "slug", event.Slug, "attempt", attempt)
		event.Slug = s.disambiguate(base)
	}
}

func (s *eventService) disambiguate(base string) string {
	return fmt.Sprintf("%s-%d", base, s.stamps.next())
}

func (s *eventService) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "is required")
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.NewValidationError("slug", "is required")
	}
	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// GetSimilarEvents returns up to three other events sharing a tag with the
// event at slug. An unknown slug yields an empty list.
func (s *eventService) GetSimilarEvents(ctx context.Context, slug string) ([]*domain.Event, error) {
	ctx, cancel := withTimeout(ctx, s.contextTimeout)
	defer cancel()

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.NewValidationError("slug", "is required")
	}
	source, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []*domain.Event{}, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	similar, err := s.eventRepo.ListByTags(ctx, source.Slug, source.Tags, similarLimit)
	if err != nil {
		return nil, fmt.Errorf("list similar events: %w", err)
	}
	if similar == nil {
		similar = []*domain.Event{}
	}
	if len(similar) > similarLimit {
		similar = similar[:similarLimit]
	}
	return similar, nil
}

// stampClock hands out strictly increasing millisecond stamps.
type stampClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

var processStamps = &stampClock{now: time.Now}

func (c *stampClock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.now().UnixMilli()
	if n <= c.last {
		n = c.last + 1
	}
	c.last = n
	return n
}
