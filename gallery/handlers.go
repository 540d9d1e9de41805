package gallery

import (
	"context"
	"net/http"
	"time"

	"blackline/models"
	"blackline/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Gallery *Service
	Log     logrus.FieldLogger
}

// GetPhotos lists the gallery; ?featured=true narrows to featured photos.
func (h *Handlers) GetPhotos(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.Gallery.List(ctx, r.URL.Query().Get("featured") == "true")
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GetPhoto also serves /gallery/featured, since the router cannot hold a
// literal segment beside :id.
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if ps.ByName("id") == "featured" {
		list, err := h.Gallery.Featured(ctx)
		if err != nil {
			utils.RespondWithError(w, h.Log, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, list)
		return
	}

	id, err := utils.ObjectIDParam(ps, "id", notFound)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	p, err := h.Gallery.Get(ctx, id)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handlers) CreatePhoto(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	p, err := h.Gallery.Create(ctx, in)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdatePhoto(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ObjectIDParam(ps, "id", notFound)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	var patch models.GalleryPatch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	p, err := h.Gallery.Update(ctx, id, patch)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeletePhoto(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := utils.ObjectIDParam(ps, "id", notFound)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	if err := h.Gallery.Delete(ctx, id); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Gallery photo deleted successfully")
}
