package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"blackline/apperr"
	"blackline/globals"
	"blackline/models"
	"blackline/rdx"
	"blackline/store/memory"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newService(t *testing.T, strict bool) (*Service, *memory.Store) {
	t.Helper()
	log, _ := test.NewNullLogger()
	st := memory.New()
	return &Service{
		Carts:       st,
		Products:    st,
		Locker:      rdx.NewLocalLocker(),
		Log:         log,
		StrictStock: strict,
	}, st
}

func seedProduct(t *testing.T, st *memory.Store, price string, stock int, status models.ProductStatus) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     "Veil",
		Price:    models.MoneyFromString(price),
		Images:   []string{"/uploads/v.jpg"},
		Category: models.CategoryAccessories,
		Stock:    stock,
		Status:   status,
	}
	require.NoError(t, st.InsertProduct(context.Background(), p))
	return p
}

func qty(n int) *int { return &n }

func TestGetWithoutCartIsEmpty(t *testing.T) {
	svc, _ := newService(t, true)

	v, err := svc.Get(context.Background(), models.Anonymous(""))
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.True(t, v.Total.IsZero())

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"total":0}`, string(raw))
}

func TestAddMergesSameLine(t *testing.T) {
	svc, st := newService(t, true)
	ctx := context.Background()
	p := seedProduct(t, st, "100", 10, models.ProductActive)
	guest := models.Anonymous("session_a")

	_, err := svc.Add(ctx, guest, AddInput{ProductID: p.ID.Hex(), Quantity: qty(2), Size: "M"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, guest, AddInput{ProductID: p.ID.Hex(), Quantity: qty(1), Size: "M"})
	require.NoError(t, err)
	v, err := svc.Add(ctx, guest, AddInput{ProductID: p.ID.Hex(), Size: "L"})
	require.NoError(t, err)

	require.Len(t, v.Items, 2)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.Equal(t, 1, v.Items[1].Quantity, "quantity defaults to 1")
	assert.Equal(t, "400", v.Total.String())
	assert.Equal(t, "session_a", v.SessionID)
}

func TestAddRejectsUnavailableProducts(t *testing.T) {
	svc, st := newService(t, true)
	ctx := context.Background()
	guest := models.Anonymous("session_a")
	inactive := seedProduct(t, st, "10", 5, models.ProductInactive)
	scarce := seedProduct(t, st, "10", 1, models.ProductActive)

	_, err := svc.Add(ctx, guest, AddInput{ProductID: primitive.NewObjectID().Hex()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Add(ctx, guest, AddInput{ProductID: inactive.ID.Hex()})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Product not found or unavailable", apperr.From(err).Message)

	_, err = svc.Add(ctx, guest, AddInput{ProductID: scarce.ID.Hex(), Quantity: qty(2)})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	_, err = svc.Add(ctx, guest, AddInput{ProductID: scarce.ID.Hex(), Quantity: qty(0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStrictStockOnMerge(t *testing.T) {
	ctx := context.Background()

	strict, st := newService(t, true)
	p := seedProduct(t, st, "10", 3, models.ProductActive)
	guest := models.Anonymous("session_a")
	_, err := strict.Add(ctx, guest, AddInput{ProductID: p.ID.Hex(), Quantity: qty(2)})
	require.NoError(t, err)
	_, err = strict.Add(ctx, guest, AddInput{ProductID: p.ID.Hex(), Quantity: qty(2)})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	lax, st2 := newService(t, false)
	p2 := seedProduct(t, st2, "10", 3, models.ProductActive)
	_, err = lax.Add(ctx, guest, AddInput{ProductID: p2.ID.Hex(), Quantity: qty(2)})
	require.NoError(t, err)
	v, err := lax.Add(ctx, guest, AddInput{ProductID: p2.ID.Hex(), Quantity: qty(2)})
	require.NoError(t, err)
	assert.Equal(t, 4, v.Items[0].Quantity)
}

func TestSetQuantity(t *testing.T) {
	svc, st := newService(t, true)
	ctx := context.Background()
	p := seedProduct(t, st, "25", 5, models.ProductActive)
	guest := models.Anonymous("session_a")

	_, err := svc.SetQuantity(ctx, guest, primitive.NewObjectID().Hex(), 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Cart not found", apperr.From(err).Message)

	v, err := svc.Add(ctx, guest, AddInput{ProductID: p.ID.Hex()})
	require.NoError(t, err)
	line := v.Items[0].ID.Hex()

	_, err = svc.SetQuantity(ctx, guest, primitive.NewObjectID().Hex(), 1)
	assert.Equal(t, "Item not found in cart", apperr.From(err).Message)

	v, err = svc.SetQuantity(ctx, guest, line, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Items[0].Quantity)
	assert.Equal(t, "100", v.Total.String())

	_, err = svc.SetQuantity(ctx, guest, line, 6)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	v, err = svc.SetQuantity(ctx, guest, line, 0)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

func TestRemoveAndClear(t *testing.T) {
	svc, st := newService(t, true)
	ctx := context.Background()
	p := seedProduct(t, st, "25", 5, models.ProductActive)
	user := models.Authenticated(&models.User{ID: primitive.NewObjectID()})

	_, err := svc.Remove(ctx, user, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, svc.Clear(ctx, user), "clearing a missing cart succeeds")

	_, err = svc.Add(ctx, user, AddInput{ProductID: p.ID.Hex()})
	require.NoError(t, err)

	v, err := svc.Remove(ctx, user, primitive.NewObjectID().Hex())
	require.NoError(t, err, "absent line is a no-op")
	assert.Len(t, v.Items, 1)

	require.NoError(t, svc.Clear(ctx, user))
	require.NoError(t, svc.Clear(ctx, user))
	v, err = svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.NotNil(t, v.ID, "cart persists after clearing")
}

func TestViewSkipsDeletedProducts(t *testing.T) {
	svc, st := newService(t, true)
	ctx := context.Background()
	keep := seedProduct(t, st, "10", 5, models.ProductActive)
	gone := seedProduct(t, st, "99", 5, models.ProductActive)
	guest := models.Anonymous("session_a")

	_, err := svc.Add(ctx, guest, AddInput{ProductID: keep.ID.Hex()})
	require.NoError(t, err)
	_, err = svc.Add(ctx, guest, AddInput{ProductID: gone.ID.Hex()})
	require.NoError(t, err)
	require.NoError(t, st.DeleteProduct(ctx, gone.ID))

	v, err := svc.Get(ctx, guest)
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Nil(t, v.Items[1].Product)
	assert.Equal(t, "10", v.Total.String())
}

func TestConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	svc, st := newService(t, false)
	ctx := context.Background()
	p := seedProduct(t, st, "1", 100, models.ProductActive)
	guest := models.Anonymous("session_race")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, guest, AddInput{ProductID: p.ID.Hex()})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := svc.Get(ctx, guest)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 20, v.Items[0].Quantity)
}

func TestAddHandlerMintsSession(t *testing.T) {
	svc, st := newService(t, true)
	log, _ := test.NewNullLogger()
	h := &Handlers{Cart: svc, Log: log}
	p := seedProduct(t, st, "50", 5, models.ProductActive)

	body := `{"productId":"` + p.ID.Hex() + `","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body))
	req = req.WithContext(globals.WithIdentity(req.Context(), models.Anonymous("")))
	rec := httptest.NewRecorder()
	h.AddToCart(rec, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	token := rec.Header().Get(globals.SessionHeader)
	require.True(t, strings.HasPrefix(token, "session_"))
	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, globals.SessionCookie, cookie.Name)
	assert.Equal(t, token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 30*24*60*60, cookie.MaxAge)

	// the cookie alone identifies the guest on the next request
	req = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: globals.SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	h.GetCart(rec, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var v struct {
		Items []json.RawMessage `json:"items"`
		Total float64           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Len(t, v.Items, 1)
	assert.Equal(t, 100.0, v.Total)
}

func TestUpdateHandlerRequiresQuantity(t *testing.T) {
	svc, _ := newService(t, true)
	log, _ := test.NewNullLogger()
	h := &Handlers{Cart: svc, Log: log}

	req := httptest.NewRequest(http.MethodPut, "/api/cart/x", strings.NewReader(`{}`))
	req.Header.Set(globals.SessionHeader, "session_a")
	rec := httptest.NewRecorder()
	h.UpdateCartItem(rec, req, httprouter.Params{{Key: "itemId", Value: "x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearHandlerMessage(t *testing.T) {
	svc, _ := newService(t, true)
	log, _ := test.NewNullLogger()
	h := &Handlers{Cart: svc, Log: log}

	rec := httptest.NewRecorder()
	h.ClearCart(rec, httptest.NewRequest(http.MethodDelete, "/api/cart", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Cart cleared successfully"}`, rec.Body.String())
}

func TestGuestCartsAreDisjoint(t *testing.T) {
	svc, st := newService(t, true)
	ctx := context.Background()
	p := seedProduct(t, st, "100", 10, models.ProductActive)
	a, b := models.Anonymous("session_a"), models.Anonymous("session_b")

	va, err := svc.Add(ctx, a, AddInput{ProductID: p.ID.Hex(), Quantity: qty(2)})
	require.NoError(t, err)
	require.Len(t, va.Items, 1)
	line := va.Items[0].ID.Hex()

	vb, err := svc.Get(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, vb.Items)

	_, err = svc.SetQuantity(ctx, b, line, 5)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Remove(ctx, b, line)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// once b has a cart of its own, a's line id still does not resolve in it
	_, err = svc.Add(ctx, b, AddInput{ProductID: p.ID.Hex(), Quantity: qty(1)})
	require.NoError(t, err)
	_, err = svc.SetQuantity(ctx, b, line, 5)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	vb, err = svc.Remove(ctx, b, line)
	require.NoError(t, err)
	require.Len(t, vb.Items, 1)
	assert.Equal(t, 1, vb.Items[0].Quantity)

	va, err = svc.Get(ctx, a)
	require.NoError(t, err)
	require.Len(t, va.Items, 1)
	assert.Equal(t, 2, va.Items[0].Quantity)
	assert.Equal(t, line, va.Items[0].ID.Hex())
}
