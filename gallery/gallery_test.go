package gallery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"blackline/apperr"
	"blackline/models"
	"blackline/rdx"
	"blackline/store/memory"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newService() (*Service, *memory.Store) {
	log, _ := test.NewNullLogger()
	st := memory.New()
	return &Service{Photos: st, Locker: rdx.NewLocalLocker(), Log: log}, st
}

func flag(b bool) *bool { return &b }

func TestCreateRequiresImageURL(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), CreateInput{ImageURL: "  "})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Image URL is required", apperr.From(err).Message)
}

func TestFeaturedCap(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	for i := 0; i < models.MaxFeaturedPhotos; i++ {
		_, err := svc.Create(ctx, CreateInput{ImageURL: "/uploads/a.jpg", Featured: true, Order: i})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, CreateInput{ImageURL: "/uploads/b.jpg", Featured: true})
	require.ErrorIs(t, err, apperr.ErrFeaturedLimitExceeded)
	assert.Equal(t, "Maximum 6 featured photos allowed. Please unfeature another photo first.", apperr.From(err).Message)

	plain, err := svc.Create(ctx, CreateInput{ImageURL: "/uploads/c.jpg"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, plain.ID, models.GalleryPatch{Featured: flag(true)})
	assert.ErrorIs(t, err, apperr.ErrFeaturedLimitExceeded)

	featured, err := svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, models.MaxFeaturedPhotos)

	// re-featuring an already featured photo does not need a new slot
	order := 42
	p, err := svc.Update(ctx, featured[0].ID, models.GalleryPatch{Featured: flag(true), Order: &order})
	require.NoError(t, err)
	assert.Equal(t, 42, p.Order)

	_, err = svc.Update(ctx, featured[1].ID, models.GalleryPatch{Featured: flag(false)})
	require.NoError(t, err)
	p, err = svc.Update(ctx, plain.ID, models.GalleryPatch{Featured: flag(true)})
	require.NoError(t, err)
	assert.True(t, p.Featured)
}

func TestConcurrentFeaturingStaysBounded(t *testing.T) {
	svc, st := newService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, CreateInput{ImageURL: "/uploads/x.jpg", Featured: true})
			if err != nil {
				assert.ErrorIs(t, err, apperr.ErrFeaturedLimitExceeded)
			}
		}()
	}
	wg.Wait()

	n, err := st.CountFeatured(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.MaxFeaturedPhotos, n)
}

func TestListOrdering(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	second, err := svc.Create(ctx, CreateInput{ImageURL: "/uploads/2.jpg", Order: 2})
	require.NoError(t, err)
	first, err := svc.Create(ctx, CreateInput{ImageURL: "/uploads/1.jpg", Order: 1, Featured: true})
	require.NoError(t, err)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	only, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, only, 1)
}

func TestMissingPhoto(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id := primitive.NewObjectID()

	_, err := svc.Get(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Update(ctx, id, models.GalleryPatch{Featured: flag(true)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Update(ctx, id, models.GalleryPatch{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id), apperr.ErrNotFound)
}

func TestGetPhotoDispatchesFeatured(t *testing.T) {
	svc, _ := newService()
	log, _ := test.NewNullLogger()
	h := &Handlers{Gallery: svc, Log: log}
	_, err := svc.Create(context.Background(), CreateInput{ImageURL: "/uploads/f.jpg", Featured: true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.GetPhoto(rec, httptest.NewRequest(http.MethodGet, "/api/gallery/featured", nil),
		httprouter.Params{{Key: "id", Value: "featured"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/uploads/f.jpg")

	rec = httptest.NewRecorder()
	h.GetPhoto(rec, httptest.NewRequest(http.MethodGet, "/api/gallery/zzz", nil),
		httprouter.Params{{Key: "id", Value: "zzz"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
