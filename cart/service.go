// Package cart implements the per-identity shopping cart.
package cart

import (
	"context"
	"errors"

	"blackline/apperr"
	"blackline/models"
	"blackline/rdx"
	"blackline/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgProductUnavailable = "Product not found or unavailable"
	msgCartNotFound       = "Cart not found"
	msgItemNotFound       = "Item not found in cart"
)

type Service struct {
	Carts    store.CartStore
	Products store.ProductStore
	Locker   rdx.Locker
	Log      logrus.FieldLogger

	// StrictStock re-checks live stock whenever a line's quantity grows.
	StrictStock bool
}

type AddInput struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// LockKey names the lock guarding one owner's cart. Checkout takes the
// same lock so a cart cannot change while it is being ordered.
func LockKey(owner models.Owner) string { return "cart:" + owner.Key() }

// withOwnerLock serialises read-modify-write on one owner's cart.
func (s *Service) withOwnerLock(ctx context.Context, owner models.Owner, fn func() error) error {
	unlock, err := s.Locker.Lock(ctx, LockKey(owner))
	if err != nil {
		return rdx.LockFailure(err)
	}
	defer unlock()
	return fn()
}

func (s *Service) find(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	c, err := s.Carts.FindCart(ctx, owner)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return c, nil
}

// Get returns the caller's cart, or an empty view when there is none.
func (s *Service) Get(ctx context.Context, id models.Identity) (*models.CartView, error) {
	owner, ok := id.Owner()
	if !ok {
		return EmptyView(), nil
	}
	c, err := s.find(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return EmptyView(), nil
	}
	return s.view(ctx, c)
}

// Add merges into an existing same line or appends a new one. The identity
// must already carry an owner; handlers mint guest sessions beforehand.
func (s *Service) Add(ctx context.Context, id models.Identity, in AddInput) (*models.CartView, error) {
	owner, ok := id.Owner()
	if !ok {
		return nil, apperr.Internal("cart owner missing", nil)
	}

	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if qty < 1 {
		return nil, apperr.Validation(apperr.Field("quantity", "Quantity must be at least 1"))
	}
	pid, err := primitive.ObjectIDFromHex(in.ProductID)
	if err != nil {
		return nil, apperr.NotFound(msgProductUnavailable)
	}

	var out *models.Cart
	err = s.withOwnerLock(ctx, owner, func() error {
		p, err := s.activeProduct(ctx, pid)
		if err != nil {
			return err
		}
		if p.Stock < qty {
			return apperr.InsufficientStock("")
		}

		c, err := s.find(ctx, owner)
		if err != nil {
			return err
		}
		if c == nil {
			c = &models.Cart{Owner: owner, Items: []models.CartItem{}}
		}

		merged := false
		for i := range c.Items {
			if c.Items[i].SameLine(pid, in.Size, in.Color) {
				if s.StrictStock && c.Items[i].Quantity+qty > p.Stock {
					return apperr.InsufficientStock("")
				}
				c.Items[i].Quantity += qty
				merged = true
				break
			}
		}
		if !merged {
			c.Items = append(c.Items, models.CartItem{
				ID:        primitive.NewObjectID(),
				ProductID: pid,
				Quantity:  qty,
				Size:      in.Size,
				Color:     in.Color,
			})
		}
		if err := s.Carts.SaveCart(ctx, c); err != nil {
			return apperr.Unavailable(err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, out)
}

// SetQuantity overwrites a line's quantity; zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, id models.Identity, lineID string, qty int) (*models.CartView, error) {
	owner, ok := id.Owner()
	if !ok {
		return nil, apperr.NotFound(msgCartNotFound)
	}

	var out *models.Cart
	err := s.withOwnerLock(ctx, owner, func() error {
		c, err := s.find(ctx, owner)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound(msgCartNotFound)
		}
		idx := lineIndex(c, lineID)
		if idx < 0 {
			return apperr.NotFound(msgItemNotFound)
		}

		line := &c.Items[idx]
		switch {
		case qty <= 0:
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		case s.StrictStock && qty > line.Quantity:
			p, err := s.activeProduct(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if qty > p.Stock {
				return apperr.InsufficientStock("")
			}
			line.Quantity = qty
		default:
			line.Quantity = qty
		}

		if err := s.Carts.SaveCart(ctx, c); err != nil {
			return apperr.Unavailable(err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, out)
}

// Remove drops a line. A missing line is not an error; a missing cart is.
func (s *Service) Remove(ctx context.Context, id models.Identity, lineID string) (*models.CartView, error) {
	owner, ok := id.Owner()
	if !ok {
		return nil, apperr.NotFound(msgCartNotFound)
	}

	var out *models.Cart
	err := s.withOwnerLock(ctx, owner, func() error {
		c, err := s.find(ctx, owner)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.NotFound(msgCartNotFound)
		}
		if idx := lineIndex(c, lineID); idx >= 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		}
		if err := s.Carts.SaveCart(ctx, c); err != nil {
			return apperr.Unavailable(err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, out)
}

// Clear empties the cart. It succeeds when there is nothing to clear.
func (s *Service) Clear(ctx context.Context, id models.Identity) error {
	owner, ok := id.Owner()
	if !ok {
		return nil
	}
	return s.withOwnerLock(ctx, owner, func() error {
		c, err := s.find(ctx, owner)
		if err != nil || c == nil {
			return err
		}
		c.Items = []models.CartItem{}
		if err := s.Carts.SaveCart(ctx, c); err != nil {
			return apperr.Unavailable(err)
		}
		return nil
	})
}

func (s *Service) activeProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.Products.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgProductUnavailable)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if !p.IsActive() {
		return nil, apperr.NotFound(msgProductUnavailable)
	}
	return p, nil
}

func lineIndex(c *models.Cart, lineID string) int {
	id, err := primitive.ObjectIDFromHex(lineID)
	if err != nil {
		return -1
	}
	return c.Line(id)
}

func EmptyView() *models.CartView {
	return &models.CartView{Items: []models.CartLineView{}, Total: models.Money{}}
}

// view resolves products and totals the lines whose product still exists.
func (s *Service) view(ctx context.Context, c *models.Cart) (*models.CartView, error) {
	ids := make([]primitive.ObjectID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Products.GetProducts(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}

	cartID := c.ID
	v := &models.CartView{ID: &cartID, SessionID: c.SessionID, Items: make([]models.CartLineView, 0, len(c.Items))}
	for _, it := range c.Items {
		p := products[it.ProductID]
		v.Items = append(v.Items, models.CartLineView{
			ID:       it.ID,
			Product:  p,
			Quantity: it.Quantity,
			Size:     it.Size,
			Color:    it.Color,
		})
		if p != nil {
			v.Total = v.Total.Add(p.Price.Times(it.Quantity))
		}
	}
	return v, nil
}
