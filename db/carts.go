package db

import (
	"context"
	"time"

	"blackline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ownerFilter(o models.Owner) bson.M {
	if o.IsUser() {
		return bson.M{"user": *o.User}
	}
	return bson.M{"sessionId": o.SessionID}
}

func (d *Database) FindCart(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	var c models.Cart
	if err := d.CartsCollection.FindOne(ctx, ownerFilter(owner)).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (d *Database) SaveCart(ctx context.Context, c *models.Cart) error {
	now := time.Now()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
		c.CreatedAt = now
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	c.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	_, err := d.CartsCollection.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, opts)
	return translate(err)
}
