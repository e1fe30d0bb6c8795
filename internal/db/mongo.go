package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionUsers    = "users"
	CollectionPayments = "payments"
	CollectionAssets   = "assets"
	CollectionProducts = "products"
)

// Connect dials MongoDB and verifies the connection with a ping before
// handing back the database.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetMaxPoolSize(50).
		// free-form payment payloads decode nested documents as maps, not ordered pairs
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("create mongodb client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, client.Database(dbName), nil
}

func Disconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the list endpoints and the email
// uniqueness rule rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	newestFirst := bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}

	specs := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: newestFirst},
		},
		CollectionAssets: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: newestFirst},
		},
		CollectionProducts: {
			{Keys: newestFirst},
		},
		CollectionPayments: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "recordedAt", Value: -1}}},
		},
	}

	for coll, models := range specs {
		if _, err := database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
