package http

import (
	"log/slog"
	"net/http"
)

// NewRouter creates the HTTP router with all routes
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", h.Health)

	// Price resolution
	mux.HandleFunc("GET /prices/{symbol}", h.GetPrice)
	mux.HandleFunc("GET /prices/{symbol}/cached", h.GetCachedPrice)
	mux.HandleFunc("POST /prices/batch", h.BatchPrices)

	// Symbol tracking
	mux.HandleFunc("GET /symbols", h.ListSymbols)
	mux.HandleFunc("POST /symbols", h.TrackSymbol)
	mux.HandleFunc("DELETE /symbols/{symbol}", h.UntrackSymbol)

	// Maintenance
	mux.HandleFunc("GET /cache/stats", h.CacheStats)
	mux.HandleFunc("POST /cache/cleanup", h.CleanupOrphans)
	mux.HandleFunc("POST /history/prune", h.PruneHistory)

	// Metrics
	mux.HandleFunc("GET /metrics", h.GetMetrics)

	// Apply middleware chain (order matters: outer -> inner)
	var handler http.Handler = mux
	handler = ContentTypeMiddleware(handler)
	handler = CORSMiddleware(handler)
	handler = RecoveryMiddleware(logger)(handler)
	handler = LoggingMiddleware(logger)(handler)

	return handler
}
