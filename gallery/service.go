// Package gallery stores photos and keeps at most MaxFeaturedPhotos of them
// featured at any time.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blackline/apperr"
	"blackline/models"
	"blackline/rdx"
	"blackline/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	notFound = "Gallery photo not found"

	// featuredLock serialises every count-then-write on the featured set.
	featuredLock = "gallery:featured"
)

var msgFeaturedLimit = fmt.Sprintf("Maximum %d featured photos allowed. Please unfeature another photo first.", models.MaxFeaturedPhotos)

type Service struct {
	Photos store.GalleryStore
	Locker rdx.Locker
	Log    logrus.FieldLogger
}

type CreateInput struct {
	ImageURL string `json:"imageUrl"`
	Featured bool   `json:"featured"`
	Order    int    `json:"order"`
}

func (s *Service) List(ctx context.Context, featuredOnly bool) ([]models.GalleryPhoto, error) {
	list, err := s.Photos.ListPhotos(ctx, featuredOnly, 0)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return list, nil
}

// Featured is the homepage set, never more than MaxFeaturedPhotos long.
func (s *Service) Featured(ctx context.Context) ([]models.GalleryPhoto, error) {
	list, err := s.Photos.ListPhotos(ctx, true, models.MaxFeaturedPhotos)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.GalleryPhoto, error) {
	p, err := s.Photos.GetPhoto(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(notFound)
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.GalleryPhoto, error) {
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.ImageURL == "" {
		return nil, apperr.Validation(apperr.Field("imageUrl", "Image URL is required"))
	}
	p := &models.GalleryPhoto{ImageURL: in.ImageURL, Featured: in.Featured, Order: in.Order}

	insert := func() error {
		if err := s.Photos.InsertPhoto(ctx, p); err != nil {
			return apperr.Unavailable(err)
		}
		return nil
	}
	if !p.Featured {
		if err := insert(); err != nil {
			return nil, err
		}
		return p, nil
	}
	if err := s.withFeaturedSlot(ctx, primitive.NilObjectID, insert); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies only the fields present in patch. Turning featured on
// needs a free slot; turning it off always succeeds.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, patch models.GalleryPatch) (*models.GalleryPhoto, error) {
	var out *models.GalleryPhoto
	apply := func() error {
		p, err := s.Photos.UpdatePhoto(ctx, id, patch)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(notFound)
		}
		if err != nil {
			return apperr.Unavailable(err)
		}
		out = p
		return nil
	}

	if patch.Featured == nil || !*patch.Featured {
		if err := apply(); err != nil {
			return nil, err
		}
		return out, nil
	}
	if err := s.withFeaturedSlot(ctx, id, apply); err != nil {
		return nil, err
	}
	return out, nil
}

// withFeaturedSlot runs write while holding the featured lock, provided the
// featured set has room. self is a photo being re-featured; it is excluded
// from the count when it already holds a slot.
func (s *Service) withFeaturedSlot(ctx context.Context, self primitive.ObjectID, write func() error) error {
	unlock, err := s.Locker.Lock(ctx, featuredLock)
	if err != nil {
		return rdx.LockFailure(err)
	}
	defer unlock()

	if !self.IsZero() {
		cur, err := s.Photos.GetPhoto(ctx, self)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(notFound)
		}
		if err != nil {
			return apperr.Unavailable(err)
		}
		if cur.Featured {
			return write()
		}
	}

	n, err := s.Photos.CountFeatured(ctx)
	if err != nil {
		return apperr.Unavailable(err)
	}
	if n >= models.MaxFeaturedPhotos {
		s.Log.WithField("featured", n).Info("featured limit reached")
		return apperr.New(apperr.CodeFeaturedLimitExceeded, msgFeaturedLimit)
	}
	return write()
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.Photos.DeletePhoto(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	if err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}
