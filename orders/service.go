// Package orders turns a cart into a priced, stock-reserved order.
package orders

import (
	"context"
	"errors"
	"strings"

	"blackline/apperr"
	"blackline/cart"
	"blackline/metrics"
	"blackline/models"
	"blackline/mq"
	"blackline/rdx"
	"blackline/store"
	"blackline/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockMode selects how checkout decrements stock.
type StockMode string

const (
	// StockAtomic decrements each line only while stock >= qty and rolls
	// back earlier lines when a later one loses the race.
	StockAtomic StockMode = "atomic"
	// StockLegacy decrements unconditionally after the read check.
	StockLegacy StockMode = "legacy"
)

const msgOrderNotFound = "Order not found"

type Service struct {
	Carts    store.CartStore
	Products store.ProductStore
	Orders   store.OrderStore
	Users    store.UserStore
	Locker   rdx.Locker
	Events   mq.Publisher
	Log      logrus.FieldLogger

	StockMode StockMode
	// OnStockChange is told which products moved so caches can drop them.
	OnStockChange func(ctx context.Context, ids ...primitive.ObjectID)
}

type PlaceInput struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod   `json:"paymentMethod" validate:"omitempty,oneof=cash card online" msg:"Valid payment method is required"`
	GuestInfo       *models.GuestInfo      `json:"guestInfo"`
}

func (in *PlaceInput) normalize() {
	a := &in.ShippingAddress
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCash
	}
}

// Place checks out the caller's cart. Nothing is written unless every line
// resolves and has stock; on any later failure decremented stock is put back.
func (s *Service) Place(ctx context.Context, id models.Identity, in PlaceInput) (*models.OrderView, error) {
	o, err := s.place(ctx, id, in)
	if err != nil {
		metrics.RecordOrderRejected(string(apperr.From(err).Code))
		return nil, err
	}
	metrics.RecordOrderPlaced(o.IsGuest())
	s.Events.Emit(ctx, mq.NewOrderEvent(mq.EventOrderPlaced, o))
	s.Log.WithFields(logrus.Fields{
		"order": o.ID.Hex(),
		"owner": o.Key(),
		"total": o.Total.String(),
	}).Info("order placed")
	return s.view(ctx, o, nil)
}

func (s *Service) place(ctx context.Context, id models.Identity, in PlaceInput) (*models.Order, error) {
	in.normalize()
	if err := utils.Validate(&in); err != nil {
		return nil, err
	}

	owner, ok := id.Owner()
	if !ok {
		return nil, apperr.ErrEmptyCart
	}
	unlock, err := s.Locker.Lock(ctx, cart.LockKey(owner))
	if err != nil {
		return nil, rdx.LockFailure(err)
	}
	defer unlock()

	c, err := s.Carts.FindCart(ctx, owner)
	if errors.Is(err, store.ErrNotFound) || (err == nil && c.IsEmpty()) {
		return nil, apperr.ErrEmptyCart
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}

	o, names, err := s.price(ctx, c)
	if err != nil {
		return nil, err
	}
	o.Owner = owner
	o.Status = models.OrderPending
	o.ShippingAddress = in.ShippingAddress
	o.PaymentMethod = in.PaymentMethod
	if owner.IsGuest() {
		o.GuestInfo = in.GuestInfo
	}

	if err := s.reserve(ctx, o.Items, names); err != nil {
		return nil, err
	}
	if err := s.Orders.InsertOrder(ctx, o); err != nil {
		s.release(ctx, o.Items)
		return nil, apperr.Unavailable(err)
	}
	s.stockChanged(ctx, o.Items)

	// the order stands even if the cart cannot be emptied
	c.Items = []models.CartItem{}
	if err := s.Carts.SaveCart(ctx, c); err != nil {
		s.Log.WithError(err).WithField("order", o.ID.Hex()).Error("clear cart after order")
	}
	return o, nil
}

// price resolves every line against the live catalog and snapshots prices.
// The returned names are used to word stock errors during reservation.
func (s *Service) price(ctx context.Context, c *models.Cart) (*models.Order, map[primitive.ObjectID]string, error) {
	ids := make([]primitive.ObjectID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Products.GetProducts(ctx, ids)
	if err != nil {
		return nil, nil, apperr.Unavailable(err)
	}

	// lines for the same product in different variants share its stock
	wanted := make(map[primitive.ObjectID]int, len(c.Items))
	names := make(map[primitive.ObjectID]string, len(c.Items))
	o := &models.Order{Items: make([]models.OrderItem, 0, len(c.Items))}
	for _, it := range c.Items {
		p := products[it.ProductID]
		if p == nil {
			return nil, nil, apperr.ErrInvalidLineItem
		}
		names[p.ID] = p.Name
		wanted[p.ID] += it.Quantity
		if p.Stock < wanted[p.ID] {
			return nil, nil, apperr.InsufficientStock(p.Name)
		}
		o.Items = append(o.Items, models.OrderItem{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			Price:     p.Price,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	o.Total = o.ComputeTotal()
	return o, names, nil
}

// reserve decrements stock line by line. In atomic mode a line that would
// take stock below zero aborts the whole reservation.
func (s *Service) reserve(ctx context.Context, items []models.OrderItem, names map[primitive.ObjectID]string) error {
	conditional := s.StockMode != StockLegacy
	for i, it := range items {
		ok, err := s.Products.DecrementStock(ctx, it.ProductID, it.Quantity, conditional)
		if err != nil {
			s.release(ctx, items[:i])
			return apperr.Unavailable(err)
		}
		if !ok {
			s.release(ctx, items[:i])
			return apperr.InsufficientStock(names[it.ProductID])
		}
	}
	return nil
}

func (s *Service) release(ctx context.Context, items []models.OrderItem) {
	for _, it := range items {
		if err := s.Products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			s.Log.WithError(err).WithFields(logrus.Fields{
				"product":  it.ProductID.Hex(),
				"quantity": it.Quantity,
			}).Error("restore stock")
		}
	}
	s.stockChanged(ctx, items)
}

func (s *Service) stockChanged(ctx context.Context, items []models.OrderItem) {
	if s.OnStockChange == nil || len(items) == 0 {
		return
	}
	ids := make([]primitive.ObjectID, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	s.OnStockChange(ctx, ids...)
}

// List returns every order to admins and only their own to users.
func (s *Service) List(ctx context.Context, id models.Identity) ([]models.OrderView, error) {
	if !id.IsAuthenticated() {
		return nil, apperr.Unauthenticated("Authentication required")
	}
	var filter *primitive.ObjectID
	if !id.IsAdmin() {
		uid := id.User().ID
		filter = &uid
	}
	list, err := s.Orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}

	users := map[primitive.ObjectID]*models.UserSummary{}
	out := make([]models.OrderView, 0, len(list))
	for i := range list {
		v, err := s.view(ctx, &list[i], users)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// Get enforces that non-admins only read orders they own.
func (s *Service) Get(ctx context.Context, id models.Identity, orderID primitive.ObjectID) (*models.OrderView, error) {
	o, err := s.authorized(ctx, id, orderID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, o, nil)
}

func (s *Service) authorized(ctx context.Context, id models.Identity, orderID primitive.ObjectID) (*models.Order, error) {
	if !id.IsAuthenticated() {
		return nil, apperr.Unauthenticated("Authentication required")
	}
	o, err := s.Orders.GetOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgOrderNotFound)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if !id.IsAdmin() && !o.OwnedBy(id.User().ID) {
		return nil, apperr.AccessDenied("Access denied")
	}
	return o, nil
}

// UpdateStatus sets any status in the enumeration; transitions are free.
func (s *Service) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) (*models.OrderView, error) {
	if !status.Valid() {
		return nil, apperr.Validation(apperr.Field("status", "Invalid status"))
	}
	o, err := s.Orders.SetOrderStatus(ctx, orderID, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgOrderNotFound)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	s.Events.Emit(ctx, mq.NewOrderEvent(mq.EventOrderStatusChanged, o))
	return s.view(ctx, o, nil)
}

// view resolves products and, for user-owned orders, the owner's summary.
// users memoises lookups across a listing and may be nil.
func (s *Service) view(ctx context.Context, o *models.Order, users map[primitive.ObjectID]*models.UserSummary) (*models.OrderView, error) {
	ids := make([]primitive.ObjectID, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.ProductID
	}
	products, err := s.Products.GetProducts(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}

	v := &models.OrderView{
		ID:              o.ID,
		GuestInfo:       o.GuestInfo,
		Items:           make([]models.OrderLineView, 0, len(o.Items)),
		Total:           o.Total,
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, models.OrderLineView{
			Product:  products[it.ProductID],
			Quantity: it.Quantity,
			Price:    it.Price,
			Size:     it.Size,
			Color:    it.Color,
		})
	}

	if o.IsUser() {
		uid := *o.User
		summary, seen := users[uid]
		if !seen {
			u, err := s.Users.GetUser(ctx, uid)
			switch {
			case err == nil:
				summary = u.Summary()
			case errors.Is(err, store.ErrNotFound):
				summary = &models.UserSummary{ID: uid}
			default:
				return nil, apperr.Unavailable(err)
			}
			if users != nil {
				users[uid] = summary
			}
		}
		v.User = summary
	}
	return v, nil
}
