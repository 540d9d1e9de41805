// Package memory is an in-process implementation of store.Stores, used by
// tests and by STORE_DRIVER=memory for local runs without mongo.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"blackline/models"
	"blackline/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
	carts    map[primitive.ObjectID]models.Cart
	orders   map[primitive.ObjectID]models.Order
	photos   map[primitive.ObjectID]models.GalleryPhoto
	users    map[primitive.ObjectID]models.User
	keys     map[string]models.IdempotencyRecord
	seq      map[primitive.ObjectID]int
	next     int
	now      func() time.Time

	// PingErr, when set, is returned by Ping to simulate an outage.
	PingErr error
}

var _ store.Stores = (*Store)(nil)

func New() *Store {
	return &Store{
		products: make(map[primitive.ObjectID]models.Product),
		carts:    make(map[primitive.ObjectID]models.Cart),
		orders:   make(map[primitive.ObjectID]models.Order),
		photos:   make(map[primitive.ObjectID]models.GalleryPhoto),
		users:    make(map[primitive.ObjectID]models.User),
		keys:     make(map[string]models.IdempotencyRecord),
		seq:      make(map[primitive.ObjectID]int),
		now:      time.Now,
	}
}

func (s *Store) Ping(ctx context.Context) error  { return s.PingErr }
func (s *Store) Close(ctx context.Context) error { return nil }

// stamp records insertion order so equal timestamps still sort newest first.
func (s *Store) stamp(id primitive.ObjectID) {
	s.next++
	s.seq[id] = s.next
}

func (s *Store) newer(a, b primitive.ObjectID, ta, tb time.Time) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return s.seq[a] > s.seq[b]
}

// --- products ---

func cloneProduct(p models.Product) *models.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Sizes = append([]string(nil), p.Sizes...)
	p.Colors = append([]string(nil), p.Colors...)
	return &p
}

func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, *cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return s.newer(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *Store) GetProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[primitive.ObjectID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (s *Store) InsertProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = *cloneProduct(*p)
	s.stamp(p.ID)
	return nil
}

func (s *Store) ReplaceProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = s.now()
	s.products[p.ID] = *cloneProduct(*p)
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int, conditional bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return false, nil
	}
	if conditional && p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	p.UpdatedAt = s.now()
	s.products[id] = p
	return true, nil
}

func (s *Store) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Stock += qty
	s.products[id] = p
	return nil
}

// --- carts ---

func cloneCart(c models.Cart) *models.Cart {
	c.Items = append([]models.CartItem(nil), c.Items...)
	if c.User != nil {
		u := *c.User
		c.User = &u
	}
	return &c
}

func (s *Store) FindCart(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.carts {
		if owner.IsUser() && c.IsUser() && *c.User == *owner.User {
			return cloneCart(c), nil
		}
		if owner.IsGuest() && c.IsGuest() && c.SessionID == owner.SessionID {
			return cloneCart(c), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SaveCart(ctx context.Context, c *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
		c.CreatedAt = now
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	c.UpdatedAt = now
	s.carts[c.ID] = *cloneCart(*c)
	return nil
}

// --- orders ---

func cloneOrder(o models.Order) *models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	if o.User != nil {
		u := *o.User
		o.User = &u
	}
	if o.GuestInfo != nil {
		g := *o.GuestInfo
		o.GuestInfo = &g
	}
	return &o
}

func (s *Store) InsertOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt = s.now()
	o.UpdatedAt = o.CreatedAt
	s.orders[o.ID] = *cloneOrder(*o)
	s.stamp(o.ID)
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) ListOrders(ctx context.Context, user *primitive.ObjectID) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Order, 0)
	for _, o := range s.orders {
		if user != nil && !o.OwnedBy(*user) {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		return s.newer(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) SetOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = s.now()
	s.orders[id] = o
	return cloneOrder(o), nil
}

// --- gallery ---

func (s *Store) ListPhotos(ctx context.Context, featuredOnly bool, limit int) ([]models.GalleryPhoto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.GalleryPhoto, 0, len(s.photos))
	for _, p := range s.photos {
		if featuredOnly && !p.Featured {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return s.newer(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetPhoto(ctx context.Context, id primitive.ObjectID) (*models.GalleryPhoto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.photos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) CountFeatured(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.photos {
		if p.Featured {
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertPhoto(ctx context.Context, p *models.GalleryPhoto) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.photos[p.ID] = *p
	s.stamp(p.ID)
	return nil
}

func (s *Store) UpdatePhoto(ctx context.Context, id primitive.ObjectID, patch models.GalleryPatch) (*models.GalleryPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.photos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Featured != nil {
		p.Featured = *patch.Featured
	}
	if patch.Order != nil {
		p.Order = *patch.Order
	}
	p.UpdatedAt = s.now()
	s.photos[id] = p
	return &p, nil
}

func (s *Store) DeletePhoto(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.photos[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.photos, id)
	return nil
}

// --- users ---

func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

// --- idempotency ---

func (s *Store) liveKey(key string) (models.IdempotencyRecord, bool) {
	rec, ok := s.keys[key]
	if !ok || !rec.ExpiresAt.After(s.now()) {
		return models.IdempotencyRecord{}, false
	}
	return rec, true
}

func (s *Store) ReserveKey(ctx context.Context, rec *models.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.liveKey(rec.Key); ok {
		return store.ErrDuplicate
	}
	s.keys[rec.Key] = *rec
	return nil
}

func (s *Store) GetKey(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.liveKey(key)
	if !ok {
		return nil, store.ErrNotFound
	}
	rec.Body = append([]byte(nil), rec.Body...)
	return &rec, nil
}

func (s *Store) CompleteKey(ctx context.Context, key string, status int, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.keys[key]
	if !ok {
		return store.ErrNotFound
	}
	rec.Done, rec.Status = true, status
	rec.Body = append([]byte(nil), body...)
	s.keys[key] = rec
	return nil
}

func (s *Store) ReleaseKey(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, key)
	return nil
}
