// Package apierror writes the JSON error bodies shared by every endpoint.
package apierror

import (
	"encoding/json"
	"net/http"
)

const contentType = "application/json; charset=utf-8"

type body struct {
	Error string `json:"error"`
}

// Write sends {"error": msg} with the given status.
func Write(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body{Error: msg})
}

func BadRequest(w http.ResponseWriter, msg string) { Write(w, http.StatusBadRequest, msg) }

func PayloadTooLarge(w http.ResponseWriter, msg string) {
	Write(w, http.StatusRequestEntityTooLarge, msg)
}

func NotFound(w http.ResponseWriter) { Write(w, http.StatusNotFound, "Not found") }

func Internal(w http.ResponseWriter, msg string) { Write(w, http.StatusInternalServerError, msg) }
