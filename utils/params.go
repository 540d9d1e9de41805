package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"blackline/apperr"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ObjectIDParam parses a path parameter. A malformed id cannot match any
// document, so it reports notFound just like a missing one.
func ObjectIDParam(ps httprouter.Params, name, notFound string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(ps.ByName(name))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound(notFound)
	}
	return id, nil
}

// DecodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation(apperr.Field("body", "Invalid JSON payload"))
	}
	return nil
}
