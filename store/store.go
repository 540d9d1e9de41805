// Package store declares the persistence contracts the services depend on.
// db implements them on mongo; store/memory implements them in process.
package store

import (
	"context"
	"errors"

	"blackline/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by lookups that match no document.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when a unique index rejects a write.
var ErrDuplicate = errors.New("store: duplicate key")

type ProductStore interface {
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// GetProducts returns the products that still exist, keyed by id.
	GetProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	ReplaceProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	// DecrementStock lowers stock by qty. When conditional is true the write
	// only applies if stock >= qty and ok reports whether it applied.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int, conditional bool) (ok bool, err error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

type CartStore interface {
	FindCart(ctx context.Context, owner models.Owner) (*models.Cart, error)
	// SaveCart upserts the cart by id, assigning one when missing.
	SaveCart(ctx context.Context, c *models.Cart) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// ListOrders returns newest first; a nil user lists every order.
	ListOrders(ctx context.Context, user *primitive.ObjectID) ([]models.Order, error)
	SetOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
}

type GalleryStore interface {
	ListPhotos(ctx context.Context, featuredOnly bool, limit int) ([]models.GalleryPhoto, error)
	GetPhoto(ctx context.Context, id primitive.ObjectID) (*models.GalleryPhoto, error)
	CountFeatured(ctx context.Context) (int, error)
	InsertPhoto(ctx context.Context, p *models.GalleryPhoto) error
	UpdatePhoto(ctx context.Context, id primitive.ObjectID, patch models.GalleryPatch) (*models.GalleryPhoto, error)
	DeletePhoto(ctx context.Context, id primitive.ObjectID) error
}

type UserStore interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
}

type IdempotencyStore interface {
	// ReserveKey inserts a pending record, or fails with ErrDuplicate when a
	// live record with the same key exists.
	ReserveKey(ctx context.Context, rec *models.IdempotencyRecord) error
	GetKey(ctx context.Context, key string) (*models.IdempotencyRecord, error)
	CompleteKey(ctx context.Context, key string, status int, body []byte) error
	ReleaseKey(ctx context.Context, key string) error
}

// Stores bundles every store plus the connectivity check used by /health.
type Stores interface {
	ProductStore
	CartStore
	OrderStore
	GalleryStore
	UserStore
	IdempotencyStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
