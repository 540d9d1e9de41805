package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxFeaturedPhotos bounds how many gallery photos may be featured at once.
const MaxFeaturedPhotos = 6

type GalleryPhoto struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ImageURL  string             `json:"imageUrl" bson:"imageUrl"`
	Featured  bool               `json:"featured" bson:"featured"`
	Order     int                `json:"order" bson:"order"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// GalleryPatch carries the fields an update touches; nil means unchanged.
type GalleryPatch struct {
	Featured *bool `json:"featured"`
	Order    *int  `json:"order"`
}
