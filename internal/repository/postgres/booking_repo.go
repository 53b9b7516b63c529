package postgres

import (
	"context"
	"database/sql"
	"errors"

	"devevent/internal/domain"
	"devevent/internal/store"
)

type bookingRepository struct {
	conn *store.Connector[*sql.DB]
}

// NewBookingRepository returns a domain.BookingRepository implemented with Postgres.
func NewBookingRepository(conn *store.Connector[*sql.DB]) domain.BookingRepository {
	return &bookingRepository{
		conn: conn,
	}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO bookings (event_id, email)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	err = db.QueryRowContext(ctx, query, b.EventID, b.Email).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateBooking
		}
		return storeErr(r.conn, err)
	}
	return nil
}

func (r *bookingRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Booking, error) {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id, event_id, email, created_at, updated_at
		FROM bookings
		WHERE event_id = $1 AND email = $2
	`
	b := &domain.Booking{}
	err = db.QueryRowContext(ctx, query, eventID, email).
		Scan(&b.ID, &b.EventID, &b.Email, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr(r.conn, err)
	}
	return b, nil
}

func (r *bookingRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Booking, error) {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id, event_id, email, created_at, updated_at
		FROM bookings
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, storeErr(r.conn, err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b := &domain.Booking{}
		if err := rows.Scan(&b.ID, &b.EventID, &b.Email, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, storeErr(r.conn, err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(r.conn, err)
	}
	if bookings == nil {
		bookings = []*domain.Booking{}
	}
	return bookings, nil
}

func (r *bookingRepository) CountByEventID(ctx context.Context, eventID string) (int64, error) {
	db, err := r.conn.Get(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, storeErr(r.conn, err)
	}
	return count, nil
}
