package router

import (
	"net/http"

	"discount-codes/internal/handler"
	"discount-codes/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	codeHandler *handler.CodeHandler,
	metrics http.Handler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	mux.HandleFunc("/api/codes/generate", codeHandler.Generate)
	mux.HandleFunc("/api/codes/use", codeHandler.Use)
	mux.HandleFunc("/api/codes/stats", codeHandler.Stats)
	mux.HandleFunc("/ws", codeHandler.ServeWS)

	// Apply middleware in order: Recovery -> Logging -> CorrelationID -> CORS -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.CorrelationID(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
