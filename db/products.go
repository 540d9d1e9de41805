package db

import (
	"context"
	"time"

	"blackline/models"
	"blackline/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func productFilter(f models.ProductFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func (d *Database) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := d.ProductsCollection.Find(ctx, productFilter(f), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (d *Database) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := d.ProductsCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (d *Database) GetProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := d.ProductsCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID] = &p
	}
	return out, cursor.Err()
}

func (d *Database) InsertProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := d.ProductsCollection.InsertOne(ctx, p)
	return translate(err)
}

func (d *Database) ReplaceProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"images":      p.Images,
		"category":    p.Category,
		"sizes":       p.Sizes,
		"colors":      p.Colors,
		"stock":       p.Stock,
		"status":      p.Status,
		"updatedAt":   p.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := d.ProductsCollection.FindOneAndUpdate(ctx, bson.M{"_id": p.ID}, update, opts).Decode(p); err != nil {
		return translate(err)
	}
	return nil
}

func (d *Database) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.ProductsCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DecrementStock uses a single conditional update when conditional is set, so
// concurrent orders cannot push stock below zero.
func (d *Database) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int, conditional bool) (bool, error) {
	filter := bson.M{"_id": id}
	if conditional {
		filter["stock"] = bson.M{"$gte": qty}
	}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := d.ProductsCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (d *Database) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := d.ProductsCollection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
