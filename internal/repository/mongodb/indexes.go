package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"devevent/internal/store"
)

// EnsureIndexes creates the unique and lookup indexes both collections rely on.
// The unique indexes are what keeps slugs and (event, email) pairs unique under
// concurrent writers.
func EnsureIndexes(ctx context.Context, conn *store.Connector[*mongo.Client], database string) error {
	client, err := conn.Get(ctx)
	if err != nil {
		return err
	}
	db := client.Database(database)

	_, err = db.Collection(eventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("events_slug_unique"),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index().SetName("events_tags"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("events_created_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("events indexes: %w", err)
	}

	_, err = db.Collection(bookingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("bookings_event_email_unique"),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetName("bookings_event_id"),
		},
	})
	if err != nil {
		return fmt.Errorf("bookings indexes: %w", err)
	}
	return nil
}
