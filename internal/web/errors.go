package web

// errors.go provides unified error response handling for the API layer.
// Errors are logged with full detail server-side, correlated by chi request
// ID, and returned to clients as a stable JSON shape.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/qyrowren/flightdeck/internal/logging"
	"github.com/qyrowren/flightdeck/internal/store"
)

// ErrorResponse is the JSON structure of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError logs the technical error and writes the JSON error body. Store
// misses map to 404, everything else keeps the caller's status.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if errors.Is(err, store.ErrNotFound) {
		statusCode = http.StatusNotFound
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}

// writeError writes a JSON error response without an underlying error value.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}

// writeJSONStatus writes v as JSON with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing to do but record it.
		slog.Error("json encode error", "error", err)
	}
}
