package auth

import (
	"context"
	"net/http"
	"time"

	"blackline/globals"
	"blackline/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Auth *Service
	Log  logrus.FieldLogger
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in RegisterInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	sess, err := h.Auth.Register(ctx, in)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	h.Log.WithField("user", sess.User.ID.Hex()).Info("user registered")
	utils.RespondWithJSON(w, http.StatusCreated, sess)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in LoginInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	sess, err := h.Auth.Login(ctx, in)
	if err != nil {
		utils.RespondWithError(w, h.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sess)
}

// Profile must sit behind the authenticating gate.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, globals.IdentityFrom(r.Context()).User())
}
