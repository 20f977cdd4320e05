package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// writeError writes a JSON error response. The full message is logged
// server-side; clients get a sanitized version.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", message,
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": sanitizeErrorMessage(message)})
}

// writeJSON encodes v as JSON with the given status. Encoding errors are
// logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// sanitizeErrorMessage strips driver and connection details that have no
// business reaching a client.
func sanitizeErrorMessage(msg string) string {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"sqlstate", "connection refused", "dial tcp", "pgx", "password"} {
		if strings.Contains(lower, marker) {
			return "internal error"
		}
	}
	return msg
}
