package db

import (
	"context"
	"time"

	"blackline/models"

	"go.mongodb.org/mongo-driver/bson"
)

// ReserveKey relies on the unique index on key. The TTL index reaps expired
// records only eventually, so lookups also filter on expiresAt.
func (d *Database) ReserveKey(ctx context.Context, rec *models.IdempotencyRecord) error {
	// clear an expired record the TTL monitor has not reaped yet
	_, err := d.IdempotencyCollection.DeleteOne(ctx, bson.M{
		"key":       rec.Key,
		"expiresAt": bson.M{"$lte": time.Now()},
	})
	if err != nil {
		return translate(err)
	}
	_, err = d.IdempotencyCollection.InsertOne(ctx, rec)
	return translate(err)
}

func (d *Database) GetKey(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	filter := bson.M{"key": key, "expiresAt": bson.M{"$gt": time.Now()}}
	if err := d.IdempotencyCollection.FindOne(ctx, filter).Decode(&rec); err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (d *Database) CompleteKey(ctx context.Context, key string, status int, body []byte) error {
	_, err := d.IdempotencyCollection.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"done": true, "status": status, "body": body}},
	)
	return translate(err)
}

func (d *Database) ReleaseKey(ctx context.Context, key string) error {
	_, err := d.IdempotencyCollection.DeleteOne(ctx, bson.M{"key": key})
	return translate(err)
}
