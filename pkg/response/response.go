// Package response writes the list API's JSON bodies: resources are sent
// bare and failures as {"errors": [...]}.
package response

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Errors []string `json:"errors"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Error(w http.ResponseWriter, statusCode int, errs ...string) {
	if errs == nil {
		errs = []string{}
	}
	JSON(w, statusCode, ErrorBody{Errors: errs})
}

func BadRequest(w http.ResponseWriter, err string) {
	Error(w, http.StatusBadRequest, err)
}

func Unauthorized(w http.ResponseWriter, err string) {
	Error(w, http.StatusUnauthorized, err)
}

func NotFound(w http.ResponseWriter, err string) {
	Error(w, http.StatusNotFound, err)
}

func MethodNotAllowed(w http.ResponseWriter, err string) {
	Error(w, http.StatusMethodNotAllowed, err)
}

func Unprocessable(w http.ResponseWriter, errs []string) {
	Error(w, http.StatusUnprocessableEntity, errs...)
}

func InternalError(w http.ResponseWriter, err string) {
	Error(w, http.StatusInternalServerError, err)
}
