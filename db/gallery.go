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

func (d *Database) ListPhotos(ctx context.Context, featuredOnly bool, limit int) ([]models.GalleryPhoto, error) {
	filter := bson.M{}
	if featuredOnly {
		filter["featured"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := d.GalleryCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	photos := []models.GalleryPhoto{}
	if err := cursor.All(ctx, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

func (d *Database) GetPhoto(ctx context.Context, id primitive.ObjectID) (*models.GalleryPhoto, error) {
	var p models.GalleryPhoto
	if err := d.GalleryCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (d *Database) CountFeatured(ctx context.Context) (int, error) {
	n, err := d.GalleryCollection.CountDocuments(ctx, bson.M{"featured": true})
	return int(n), err
}

func (d *Database) InsertPhoto(ctx context.Context, p *models.GalleryPhoto) error {
	now := time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := d.GalleryCollection.InsertOne(ctx, p)
	return translate(err)
}

func (d *Database) UpdatePhoto(ctx context.Context, id primitive.ObjectID, patch models.GalleryPatch) (*models.GalleryPhoto, error) {
	set := bson.M{"updatedAt": time.Now()}
	if patch.Featured != nil {
		set["featured"] = *patch.Featured
	}
	if patch.Order != nil {
		set["order"] = *patch.Order
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.GalleryPhoto
	if err := d.GalleryCollection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (d *Database) DeletePhoto(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.GalleryCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
