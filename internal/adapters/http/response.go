package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
)

// Response helpers for consistent JSON responses

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondErrorWithCode sends an error response with an error code
func respondErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleDomainError maps domain errors to HTTP responses
func handleDomainError(w http.ResponseWriter, err error) {
	var dataNotFound *domain.DataNotFoundError

	switch {
	case errors.As(err, &dataNotFound):
		respondErrorWithCode(w, http.StatusNotFound, "price unavailable: "+dataNotFound.Error(), "PRICE_UNAVAILABLE")

	case errors.Is(err, domain.ErrInvalidSymbol):
		respondErrorWithCode(w, http.StatusBadRequest, "invalid symbol format", "INVALID_SYMBOL")

	case errors.Is(err, domain.ErrSymbolNotFound):
		respondErrorWithCode(w, http.StatusNotFound, "symbol not found", "SYMBOL_NOT_FOUND")

	case errors.Is(err, domain.ErrSymbolExists):
		respondErrorWithCode(w, http.StatusConflict, "symbol already tracked", "SYMBOL_EXISTS")

	case errors.Is(err, domain.ErrQuoteNotFound):
		respondErrorWithCode(w, http.StatusNotFound, "no cached quote for symbol", "QUOTE_NOT_FOUND")

	case errors.Is(err, domain.ErrUpstreamUnavailable):
		respondErrorWithCode(w, http.StatusServiceUnavailable, "upstream price service unavailable", "UPSTREAM_UNAVAILABLE")

	case errors.Is(err, domain.ErrRateLimited):
		respondErrorWithCode(w, http.StatusTooManyRequests, "rate limited by upstream", "RATE_LIMITED")

	case errors.Is(err, domain.ErrInvalidResponse):
		respondErrorWithCode(w, http.StatusBadGateway, "invalid response from upstream", "INVALID_UPSTREAM_RESPONSE")

	case errors.Is(err, domain.ErrDatabaseConnection):
		respondErrorWithCode(w, http.StatusServiceUnavailable, "database connection error", "DATABASE_ERROR")

	default:
		respondErrorWithCode(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
