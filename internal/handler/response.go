package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/foodwheel/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an error's kind to a status. Storage, configuration and
// unclassified failures are logged and answered with fallback only.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindConflict:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAuth:
		status = http.StatusUnauthorized
	case apperr.KindRateLimit:
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		logger.Error(fallback, "error", err)
		writeJSON(w, status, map[string]string{"error": fallback})
		return
	}
	writeJSON(w, status, map[string]string{"error": apperr.Message(err, fallback)})
}

// decodeJSON reads a JSON request body into v. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Validation("invalid JSON")
}
