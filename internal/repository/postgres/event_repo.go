package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"devevent/internal/domain"
	"devevent/internal/store"
)

const eventColumns = `id, title, slug, description, overview, image, venue, location, date, time, mode, audience, agenda, organizer, tags, created_at, updated_at`

type eventRepository struct {
	conn *store.Connector[*sql.DB]
}

// NewEventRepository returns a domain.EventRepository implemented with Postgres.
func NewEventRepository(conn *store.Connector[*sql.DB]) domain.EventRepository {
	return &eventRepository{
		conn: conn,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO events (title, slug, description, overview, image, venue, location, date, time, mode, audience, agenda, organizer, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`
	err = db.QueryRowContext(ctx, query,
		e.Title, e.Slug, e.Description, e.Overview, e.Image, e.Venue, e.Location,
		e.Date, e.Time, string(e.Mode), e.Audience, pq.Array(e.Agenda), e.Organizer, pq.Array(e.Tags),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return storeErr(r.conn, err)
	}
	return nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return err
	}
	query := `
		UPDATE events SET
			title = $1, slug = $2, description = $3, overview = $4, image = $5, venue = $6, location = $7,
			date = $8, time = $9, mode = $10, audience = $11, agenda = $12, organizer = $13, tags = $14,
			updated_at = NOW()
		WHERE id = $15
		RETURNING created_at, updated_at
	`
	err = db.QueryRowContext(ctx, query,
		e.Title, e.Slug, e.Description, e.Overview, e.Image, e.Venue, e.Location,
		e.Date, e.Time, string(e.Mode), e.Audience, pq.Array(e.Agenda), e.Organizer, pq.Array(e.Tags),
		e.ID,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return storeErr(r.conn, err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug)
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at DESC, id DESC`)
}

func (r *eventRepository) ListByTags(ctx context.Context, excludeSlug string, tags []string, limit int) ([]*domain.Event, error) {
	if len(tags) == 0 || limit <= 0 {
		return []*domain.Event{}, nil
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE slug <> $1 AND tags && $2 LIMIT $3`
	return r.list(ctx, query, excludeSlug, pq.Array(tags), limit)
}

func (r *eventRepository) getOne(ctx context.Context, query string, arg string) (*domain.Event, error) {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	e, err := scanEvent(db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr(r.conn, err)
	}
	return e, nil
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(r.conn, err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storeErr(r.conn, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(r.conn, err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var mode string
	err := row.Scan(
		&e.ID, &e.Title, &e.Slug, &e.Description, &e.Overview, &e.Image, &e.Venue, &e.Location,
		&e.Date, &e.Time, &mode, &e.Audience, pq.Array(&e.Agenda), &e.Organizer, pq.Array(&e.Tags),
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Mode = domain.EventMode(mode)
	return e, nil
}
