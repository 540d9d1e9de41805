package catalog

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
	Catalog *Service
	Log     logrus.FieldLogger
}

// GetProducts supports ?category= for everyone and ?status= for admins.
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	f := models.ProductFilter{
		Category: models.Category(q.Get("category")),
		Status:   models.ProductStatus(q.Get("status")),
	}
	products, err := h.Catalog.List(ctx, f, globals.IdentityFrom(r.Context()).IsAdmin())
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ObjectIDParam(ps, "id", notFound)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	p, err := h.Catalog.Get(ctx, id, globals.IdentityFrom(r.Context()).IsAdmin())
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	p, err := h.Catalog.Create(ctx, in)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ObjectIDParam(ps, "id", notFound)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	var in ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	p, err := h.Catalog.Update(ctx, id, in)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ObjectIDParam(ps, "id", notFound)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	if err := h.Catalog.Delete(ctx, id); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Product deleted successfully")
}
