package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoConnector returns a Connector for the MongoDB deployment at uri.
func NewMongoConnector(uri string) *Connector[*mongo.Client] {
	return NewConnector(func(ctx context.Context) (*mongo.Client, error) {
		return OpenMongo(ctx, uri)
	}, func(client *mongo.Client) error {
		return client.Disconnect(context.Background())
	})
}

// OpenMongo connects to MongoDB and pings the primary.
func OpenMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}
