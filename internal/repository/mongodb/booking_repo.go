package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"devevent/internal/domain"
	"devevent/internal/store"
)

type bookingRepository struct {
	conn     *store.Connector[*mongo.Client]
	database string
}

// NewBookingRepository returns a domain.BookingRepository backed by the bookings collection.
func NewBookingRepository(conn *store.Connector[*mongo.Client], database string) domain.BookingRepository {
	return &bookingRepository{conn: conn, database: database}
}

func (r *bookingRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	client, err := r.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(r.database).Collection(bookingsCollection), nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	col, err := r.collection(ctx)
	if err != nil {
		return err
	}
	ts := now()
	doc := &bookingDocument{
		ID:        uuid.NewString(),
		EventID:   b.EventID,
		Email:     b.Email,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if _, err := col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateBooking
		}
		return fmt.Errorf("insert booking: %w", storeErr(r.conn, err))
	}
	b.ID, b.CreatedAt, b.UpdatedAt = doc.ID, doc.CreatedAt, doc.UpdatedAt
	return nil
}

func (r *bookingRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Booking, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	var doc bookingDocument
	err = col.FindOne(ctx, bson.M{"event_id": eventID, "email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find booking: %w", storeErr(r.conn, err))
	}
	return doc.toDomain(), nil
}

func (r *bookingRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Booking, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := col.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", storeErr(r.conn, err))
	}
	defer cur.Close(ctx)

	bookings := make([]*domain.Booking, 0)
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode booking: %w", storeErr(r.conn, err))
		}
		bookings = append(bookings, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list bookings cursor: %w", storeErr(r.conn, err))
	}
	return bookings, nil
}

func (r *bookingRepository) CountByEventID(ctx context.Context, eventID string) (int64, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return 0, err
	}
	count, err := col.CountDocuments(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", storeErr(r.conn, err))
	}
	return count, nil
}
