package orders

import (
	"context"
	"net/http"
	"time"

	"blackline/globals"
	"blackline/models"
	"blackline/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Orders *Service
	Log    logrus.FieldLogger
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in PlaceInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	v, err := h.Orders.Place(ctx, globals.RequestIdentity(r), in)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, v)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.Orders.List(ctx, globals.IdentityFrom(ctx))
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ObjectIDParam(ps, "id", msgOrderNotFound)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	v, err := h.Orders.Get(ctx, globals.IdentityFrom(ctx), id)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ObjectIDParam(ps, "id", msgOrderNotFound)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	var body struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	v, err := h.Orders.UpdateStatus(ctx, id, body.Status)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, v)
}

func (h *Handlers) GetReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ObjectIDParam(ps, "id", msgOrderNotFound)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	pdf, err := h.Orders.Receipt(ctx, globals.IdentityFrom(ctx), id)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+id.Hex()+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
