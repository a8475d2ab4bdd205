package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// Handler contains all HTTP handlers
type Handler struct {
	priceSvc       ports.PriceService
	symbolSvc      ports.SymbolService
	maintenanceSvc ports.MaintenanceService
	metricsSvc     ports.MetricsService
	provider       ports.QuoteProvider
	logger         *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(
	priceSvc ports.PriceService,
	symbolSvc ports.SymbolService,
	maintenanceSvc ports.MaintenanceService,
	metricsSvc ports.MetricsService,
	provider ports.QuoteProvider,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		priceSvc:       priceSvc,
		symbolSvc:      symbolSvc,
		maintenanceSvc: maintenanceSvc,
		metricsSvc:     metricsSvc,
		provider:       provider,
		logger:         logger.With("component", "http_handler"),
	}
}

// Health returns service health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "healthy"
	upstreamStatus := "healthy"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.provider.Ping(checkCtx); err != nil {
		upstreamStatus = "unhealthy"
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"upstream": upstreamStatus,
	})
}

// GetPrice resolves a single symbol through the fallback pipeline.
// A confidence other than "high" signals the UI to show a staleness
// indicator; a 404 means no data at any tier.
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	forceRefresh := r.URL.Query().Get("force_refresh") == "true"

	resolved, err := h.priceSvc.GetPriceWithFallback(r.Context(), symbol, forceRefresh)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resolved)
}

// CachedPriceResponse classifies a cache entry without any network call
type CachedPriceResponse struct {
	Symbol     string  `json:"symbol"`
	Price      string  `json:"price"`
	Source     string  `json:"source"`
	AgeSeconds float64 `json:"age_seconds"`
	IsFresh    bool    `json:"is_fresh"`
	IsStale    bool    `json:"is_stale"`
	IsExpired  bool    `json:"is_expired"`
}

// GetCachedPrice returns the cache entry for a symbol with its staleness
func (h *Handler) GetCachedPrice(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	aged, err := h.priceSvc.GetCachedPrice(r.Context(), symbol)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CachedPriceResponse{
		Symbol:     aged.Symbol,
		Price:      aged.Price.String(),
		Source:     aged.Source,
		AgeSeconds: aged.Age.Seconds(),
		IsFresh:    aged.IsFresh(),
		IsStale:    aged.IsStale(),
		IsExpired:  aged.IsExpired(),
	})
}

// BatchPricesRequest represents the request body for a bulk price lookup
type BatchPricesRequest struct {
	Symbols []string `json:"symbols"`
}

// BatchPrices resolves many symbols with one bulk upstream request.
// Per-symbol failures appear as error entries; the batch itself succeeds.
func (h *Handler) BatchPrices(w http.ResponseWriter, r *http.Request) {
	var req BatchPricesRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Symbols) == 0 {
		respondError(w, http.StatusBadRequest, "symbols are required")
		return
	}

	results, err := h.priceSvc.BatchGetPrices(r.Context(), req.Symbols)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// ListSymbols returns all tracked symbols
func (h *Handler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.symbolSvc.ListSymbols(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
	})
}

// TrackSymbolRequest represents the request body for tracking a symbol
type TrackSymbolRequest struct {
	Symbol string `json:"symbol"`
}

// TrackSymbol registers a new symbol to maintain quotes for
func (h *Handler) TrackSymbol(w http.ResponseWriter, r *http.Request) {
	var req TrackSymbolRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	symbol, err := h.symbolSvc.TrackSymbol(r.Context(), req.Symbol)
	if err != nil {
		// Tracking an already-tracked symbol is idempotent
		if err == domain.ErrSymbolExists {
			existing, getErr := h.symbolSvc.GetSymbol(r.Context(), req.Symbol)
			if getErr == nil {
				respondJSON(w, http.StatusOK, existing)
				return
			}
		}
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, symbol)
}

// UntrackSymbol removes a tracked symbol
func (h *Handler) UntrackSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	if err := h.symbolSvc.UntrackSymbol(r.Context(), symbol); err != nil {
		handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CacheStats summarizes the quote cache by staleness tier
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.maintenanceSvc.CacheStats(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// CleanupOrphans removes cache entries for untracked symbols
func (h *Handler) CleanupOrphans(w http.ResponseWriter, r *http.Request) {
	removed, err := h.maintenanceSvc.CleanupOrphanedQuotes(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}

// PruneHistory removes history records older than the retention window
func (h *Handler) PruneHistory(w http.ResponseWriter, r *http.Request) {
	days := 0
	if daysParam := r.URL.Query().Get("days_to_keep"); daysParam != "" {
		d, err := strconv.Atoi(daysParam)
		if err != nil || d < 1 {
			respondError(w, http.StatusBadRequest, "days_to_keep must be a positive integer")
			return
		}
		days = d
	}

	removed, err := h.maintenanceSvc.PruneHistory(r.Context(), days)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}

// GetMetrics returns operational metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.metricsSvc.GetMetrics(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}
