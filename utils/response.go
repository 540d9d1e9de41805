package utils

import (
	"encoding/json"
	"net/http"

	"blackline/apperr"

	"github.com/sirupsen/logrus"
)

type M map[string]interface{}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string              `json:"message"`
	Code    apperr.Code         `json:"code"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithError maps err onto its HTTP status. Causes of internal and
// dependency failures are logged and never shown to the client.
func RespondWithError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	e := apperr.From(err)
	status := e.Status()
	if status >= http.StatusInternalServerError && log != nil {
		log.WithError(err).WithField("code", e.Code).Error("request failed")
	}
	RespondWithJSON(w, status, ErrorBody{Message: e.Message, Code: e.Code, Errors: e.Fields})
}

func RespondWithMessage(w http.ResponseWriter, statusCode int, msg string) {
	RespondWithJSON(w, statusCode, M{"message": msg})
}
