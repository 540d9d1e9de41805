package cart

import (
	"context"
	"net/http"
	"time"

	"blackline/apperr"
	"blackline/globals"
	"blackline/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Cart *Service
	Log  logrus.FieldLogger
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	v, err := h.Cart.Get(ctx, globals.RequestIdentity(r))
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in AddInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	id := ensureSession(w, globals.RequestIdentity(r))

	v, err := h.Cart.Add(ctx, id, in)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	if body.Quantity == nil {
		utils.RespondWithError(w, h.Log, apperr.Validation(apperr.Field("quantity", "Quantity is required")))
		return
	}
	v, err := h.Cart.SetQuantity(ctx, globals.RequestIdentity(r), ps.ByName("itemId"), *body.Quantity)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	v, err := h.Cart.Remove(ctx, globals.RequestIdentity(r), ps.ByName("itemId"))
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Cart.Clear(ctx, globals.RequestIdentity(r)); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Cart cleared successfully")
}
