package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

// errorResponse is the JSON error body for all failure responses.
// Allowed is set only on rule-validation failures so UI surfaces can show
// the legal operator list for the offending field.
type errorResponse struct {
	Error   string   `json:"error"`
	Allowed []string `json:"allowed_operators,omitempty"`
}

// writeJSON encodes a response body. Encoding failures after the header is
// written can only be logged by the caller; status is committed first.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
