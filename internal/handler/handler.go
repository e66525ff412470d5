package handler

import (
	"net/http"

	"discount-codes/internal/middleware"
	"discount-codes/internal/model"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code. Encoding
// failures are logged only; the status line has already been sent.
func writeJSON(w http.ResponseWriter, status int, data interface{}, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// writeError writes a model.ErrorResponse with the given status, error code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	correlationID := middleware.GetCorrelationID(r.Context())
	logger.Warn().
		Str("error", code).
		Str("message", message).
		Int("status", status).
		Str("correlation_id", correlationID).
		Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: correlationID,
	}, logger)
}
