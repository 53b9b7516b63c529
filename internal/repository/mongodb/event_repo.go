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

type eventRepository struct {
	conn     *store.Connector[*mongo.Client]
	database string
}

// NewEventRepository returns a domain.EventRepository backed by the events collection.
func NewEventRepository(conn *store.Connector[*mongo.Client], database string) domain.EventRepository {
	return &eventRepository{conn: conn, database: database}
}

func (r *eventRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	client, err := r.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(r.database).Collection(eventsCollection), nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	col, err := r.collection(ctx)
	if err != nil {
		return err
	}
	doc := newEventDocument(e)
	doc.ID = uuid.NewString()
	doc.CreatedAt = now()
	doc.UpdatedAt = doc.CreatedAt
	if _, err := col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert event: %w", storeErr(r.conn, err))
	}
	e.ID, e.CreatedAt, e.UpdatedAt = doc.ID, doc.CreatedAt, doc.UpdatedAt
	return nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	col, err := r.collection(ctx)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"title":       e.Title,
		"slug":        e.Slug,
		"description": e.Description,
		"overview":    e.Overview,
		"image":       e.Image,
		"venue":       e.Venue,
		"location":    e.Location,
		"date":        e.Date,
		"time":        e.Time,
		"mode":        string(e.Mode),
		"audience":    e.Audience,
		"agenda":      e.Agenda,
		"organizer":   e.Organizer,
		"tags":        e.Tags,
		"updated_at":  now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc eventDocument
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": e.ID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("update event: %w", storeErr(r.conn, err))
	}
	e.CreatedAt, e.UpdatedAt = doc.CreatedAt, doc.UpdatedAt
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.D{}, opts)
}

func (r *eventRepository) ListByTags(ctx context.Context, excludeSlug string, tags []string, limit int) ([]*domain.Event, error) {
	if len(tags) == 0 || limit <= 0 {
		return []*domain.Event{}, nil
	}
	filter := bson.M{
		"slug": bson.M{"$ne": excludeSlug},
		"tags": bson.M{"$in": tags},
	}
	return r.find(ctx, filter, options.Find().SetLimit(int64(limit)))
}

func (r *eventRepository) findOne(ctx context.Context, filter bson.M) (*domain.Event, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	var doc eventDocument
	if err := col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", storeErr(r.conn, err))
	}
	return doc.toDomain(), nil
}

func (r *eventRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*domain.Event, error) {
	col, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", storeErr(r.conn, err))
	}
	defer cur.Close(ctx)

	events := make([]*domain.Event, 0)
	for cur.Next(ctx) {
		var doc eventDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode event: %w", storeErr(r.conn, err))
		}
		events = append(events, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list events cursor: %w", storeErr(r.conn, err))
	}
	return events, nil
}
