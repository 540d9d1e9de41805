package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryWedding     Category = "wedding"
	CategoryFormal      Category = "formal"
	CategoryAccessories Category = "accessories"
)

var Categories = []Category{CategoryWedding, CategoryFormal, CategoryAccessories}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

func (s ProductStatus) Valid() bool {
	return s == ProductActive || s == ProductInactive
}

// Product is a catalog entry. Stock never goes below zero.
type Product struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Price       Money              `json:"price" bson:"price"`
	Images      []string           `json:"images" bson:"images"`
	Category    Category           `json:"category" bson:"category"`
	Sizes       []string           `json:"sizes" bson:"sizes"`
	Colors      []string           `json:"colors" bson:"colors"`
	Stock       int                `json:"stock" bson:"stock"`
	Status      ProductStatus      `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (p *Product) IsActive() bool { return p != nil && p.Status == ProductActive }

// ProductFilter narrows catalog listings. Empty fields match everything.
type ProductFilter struct {
	Category Category
	Status   ProductStatus
}
