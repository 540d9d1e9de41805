// Package db implements the store contracts on MongoDB.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blackline/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database holds the client and the collections the services use. It is
// built once in main and shared.
type Database struct {
	Client *mongo.Client

	ProductsCollection    *mongo.Collection
	CartsCollection       *mongo.Collection
	OrdersCollection      *mongo.Collection
	GalleryCollection     *mongo.Collection
	UsersCollection       *mongo.Collection
	IdempotencyCollection *mongo.Collection
}

var _ store.Stores = (*Database)(nil)

// Connect dials mongo, verifies the connection and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Database, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	d := New(client, database)
	if err := d.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return d, nil
}

// New wires collections on an existing client without touching the server.
func New(client *mongo.Client, database string) *Database {
	dbh := client.Database(database)
	return &Database{
		Client:                client,
		ProductsCollection:    dbh.Collection("products"),
		CartsCollection:       dbh.Collection("carts"),
		OrdersCollection:      dbh.Collection("orders"),
		GalleryCollection:     dbh.Collection("galleries"),
		UsersCollection:       dbh.Collection("users"),
		IdempotencyCollection: dbh.Collection("idempotency"),
	}
}

func (d *Database) EnsureIndexes(ctx context.Context) error {
	sparse := options.Index().SetSparse(true)
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		d.CartsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: sparse},
			{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: sparse},
		},
		d.OrdersCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		d.ProductsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}}},
		},
		d.GalleryCollection: {
			{Keys: bson.D{{Key: "featured", Value: 1}}},
			{Keys: bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		d.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		d.IdempotencyCollection: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_key")},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at")},
		},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, nil)
}

func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}
