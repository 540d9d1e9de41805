// Package catalog manages products: public listing, admin CRUD and the
// optional read cache.
package catalog

import (
	"context"
	"errors"
	"strings"

	"blackline/apperr"
	"blackline/metrics"
	"blackline/models"
	"blackline/rdx"
	"blackline/store"
	"blackline/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const notFound = "Product not found"

type Service struct {
	Products store.ProductStore
	Cache    rdx.Cache
	Log      logrus.FieldLogger
}

func NewService(products store.ProductStore, cache rdx.Cache, log logrus.FieldLogger) *Service {
	if cache == nil {
		cache = rdx.NopCache
	}
	return &Service{Products: products, Cache: cache, Log: log}
}

// ProductInput is the create/update payload. Update replaces every field.
type ProductInput struct {
	Name        string               `json:"name" validate:"required" msg:"Name is required"`
	Description string               `json:"description" validate:"required" msg:"Description is required"`
	Price       *models.Money        `json:"price" validate:"required" msg:"Valid price is required"`
	Images      []string             `json:"images" validate:"min=1,dive,required" msg:"At least one image is required"`
	Category    models.Category      `json:"category" validate:"oneof=wedding formal accessories" msg:"Valid category is required"`
	Sizes       []string             `json:"sizes"`
	Colors      []string             `json:"colors"`
	Stock       *int                 `json:"stock" validate:"required,min=0" msg:"Valid stock quantity is required"`
	Status      models.ProductStatus `json:"status" validate:"omitempty,oneof=active inactive" msg:"Valid status is required"`
}

func (in *ProductInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = models.ProductActive
	}
}

func (in *ProductInput) validate() error {
	var fields []apperr.FieldError
	if err := utils.Validate(in); err != nil {
		e := apperr.From(err)
		if e.Code != apperr.CodeValidation {
			return err
		}
		fields = append(fields, e.Fields...)
	}
	if in.Price != nil && in.Price.IsNegative() {
		fields = append(fields, apperr.Field("price", "Valid price is required"))
	}
	if len(fields) > 0 {
		return apperr.Validation(fields...)
	}
	return nil
}

func (in *ProductInput) apply(p *models.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = *in.Price
	p.Images = in.Images
	p.Category = in.Category
	p.Sizes = nonNil(in.Sizes)
	p.Colors = nonNil(in.Colors)
	p.Stock = *in.Stock
	p.Status = in.Status
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func cacheKey(id primitive.ObjectID) string { return "product:" + id.Hex() }

// List returns newest first. Non-admin callers only ever see active products.
func (s *Service) List(ctx context.Context, f models.ProductFilter, admin bool) ([]models.Product, error) {
	if !admin {
		f.Status = models.ProductActive
	}
	products, err := s.Products.ListProducts(ctx, f)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID, admin bool) (*models.Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && !p.IsActive() {
		return nil, apperr.NotFound(notFound)
	}
	return p, nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var cached models.Product
	if s.Cache.Get(ctx, cacheKey(id), &cached) {
		metrics.RecordCacheLookup(true)
		return &cached, nil
	}
	metrics.RecordCacheLookup(false)

	p, err := s.Products.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(notFound)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	s.Cache.Set(ctx, cacheKey(id), p)
	return p, nil
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.Product{}
	in.apply(p)
	if err := s.Products.InsertProduct(ctx, p); err != nil {
		return nil, apperr.Unavailable(err)
	}
	s.Log.WithFields(logrus.Fields{"product": p.ID.Hex(), "name": p.Name}).Info("product created")
	return p, nil
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in ProductInput) (*models.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.Product{ID: id}
	in.apply(p)
	err := s.Products.ReplaceProduct(ctx, p)
	s.Invalidate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(notFound)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return p, nil
}

// Delete leaves historical order lines pointing at the removed id.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.Products.DeleteProduct(ctx, id)
	s.Invalidate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	if err != nil {
		return apperr.Unavailable(err)
	}
	s.Log.WithField("product", id.Hex()).Info("product deleted")
	return nil
}

// Invalidate drops cached copies; orders call it after stock moves.
func (s *Service) Invalidate(ctx context.Context, ids ...primitive.ObjectID) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	s.Cache.Del(ctx, keys...)
}
