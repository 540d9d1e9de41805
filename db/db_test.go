package db

import (
	"errors"
	"fmt"
	"testing"

	"blackline/models"
	"blackline/store"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestOwnerFilter(t *testing.T) {
	id := primitive.NewObjectID()

	assert.Equal(t, bson.M{"user": id}, ownerFilter(models.UserOwner(id)))
	assert.Equal(t, bson.M{"sessionId": "session_a"}, ownerFilter(models.GuestOwner("session_a")))
}

func TestProductFilter(t *testing.T) {
	assert.Empty(t, productFilter(models.ProductFilter{}))
	assert.Equal(t,
		bson.M{"category": models.CategoryFormal, "status": models.ProductActive},
		productFilter(models.ProductFilter{Category: models.CategoryFormal, Status: models.ProductActive}),
	)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(fmt.Errorf("find: %w", mongo.ErrNoDocuments)), store.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translate(dup), store.ErrDuplicate)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
}
