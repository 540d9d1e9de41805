package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one line of a cart. Two lines are the same line when product,
// size and color all match.
type CartItem struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	ProductID primitive.ObjectID `json:"product" bson:"product"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Size      string             `json:"size,omitempty" bson:"size,omitempty"`
	Color     string             `json:"color,omitempty" bson:"color,omitempty"`
}

func (it CartItem) SameLine(productID primitive.ObjectID, size, color string) bool {
	return it.ProductID == productID && it.Size == size && it.Color == color
}

type Cart struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Owner     `bson:",inline"`
	Items     []CartItem `json:"items" bson:"items"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Line returns the index of the line with the given id, or -1.
func (c *Cart) Line(id primitive.ObjectID) int {
	for i, it := range c.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) IsEmpty() bool { return c == nil || len(c.Items) == 0 }

// CartLineView is a cart line with its product resolved. Product is nil when
// the referenced product no longer exists.
type CartLineView struct {
	ID       primitive.ObjectID `json:"_id"`
	Product  *Product           `json:"product"`
	Quantity int                `json:"quantity"`
	Size     string             `json:"size,omitempty"`
	Color    string             `json:"color,omitempty"`
}

type CartView struct {
	ID        *primitive.ObjectID `json:"_id,omitempty"`
	SessionID string              `json:"sessionId,omitempty"`
	Items     []CartLineView      `json:"items"`
	Total     Money               `json:"total"`
}
