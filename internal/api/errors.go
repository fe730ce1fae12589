package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

const (
	codeNotFound   = "NotFound"
	codeBadRequest = "BadRequest"
	codeInternal   = "InternalServerError"
)

type errorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, errorBody{Code: code, Description: description})
}

// writeViolations reports every collected validation failure in one
// response.
func writeViolations(w http.ResponseWriter, violations []string) {
	writeError(w, http.StatusBadRequest, codeBadRequest, strings.Join(violations, "; "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeGeoJSON is writeJSON with the feature media type.
func writeGeoJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
