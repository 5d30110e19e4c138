package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection("cart_snapshots")}
}

// MongoStore holds one document per storage key. The snapshot stays an
// opaque byte blob: the database never learns the cart shape, so a
// schema change on the engine side needs no migration here.
type MongoStore struct {
	collection *mongo.Collection
}

type snapshotDoc struct {
	Key       string           `bson:"_id"`
	Data      primitive.Binary `bson:"data"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

func (m *MongoStore) Read(ctx context.Context, key string) ([]byte, error) {
	var doc snapshotDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return doc.Data.Data, nil
}

func (m *MongoStore) Write(ctx context.Context, key string, data []byte) error {
	update := bson.M{"$set": bson.M{
		"data":       primitive.Binary{Data: data},
		"updated_at": time.Now(),
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := m.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// ConnectMongo opens a connection sized for the snapshot store: one
// engine instance reads and writes a single key, so the pool stays
// small and timeouts short. Fails fast when the server is unreachable
// rather than leaving a half-open client behind.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client.Database(database), nil
}
