package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"sim-sync/internal/service"
	"sim-sync/pkg/response"
)

// writeServiceError maps service errors onto the API's status codes.
func writeServiceError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		response.Unprocessable(w, vErr.Messages)
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(w, "Not found")
	case errors.Is(err, service.ErrAggregateImmutable):
		response.MethodNotAllowed(w, "Cannot manually manage an aggregate list")
	default:
		logger.Error().Err(err).Msg("request failed")
		response.InternalError(w, "Something went horribly wrong")
	}
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	return id, err == nil && id > 0
}

// decodeJSON reads the request body into v. An empty body leaves v zero.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
