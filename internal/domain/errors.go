package domain

import (
	"errors"
	"fmt"
)

var (
	// Symbol errors
	ErrInvalidSymbol  = errors.New("invalid symbol format")
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrSymbolExists   = errors.New("symbol already tracked")

	// Cache errors
	ErrQuoteNotFound = errors.New("no cached quote for symbol")
	ErrNoHistory     = errors.New("no history records for symbol")

	// Upstream errors
	ErrUpstreamUnavailable = errors.New("upstream price service unavailable")
	ErrRateLimited         = errors.New("rate limited by upstream")
	ErrInvalidResponse     = errors.New("invalid response from upstream")

	// Database errors
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")

	// General errors
	ErrInternal = errors.New("internal error")
)

// DataNotFoundError means the fallback ladder was exhausted: no fresh fetch,
// no cache entry within the maximum age, and no history to average. It is the
// only error a caller of the resolution facade should ever see, and it is
// terminal: retrying cannot help until data exists.
type DataNotFoundError struct {
	Symbol string
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("no price data available for %s at any fallback tier", e.Symbol)
}

// NewDataNotFoundError creates a terminal no-data error for a symbol
func NewDataNotFoundError(symbol string) *DataNotFoundError {
	return &DataNotFoundError{Symbol: symbol}
}

// IsDataNotFound checks whether the fallback ladder was exhausted
func IsDataNotFound(err error) bool {
	var dnf *DataNotFoundError
	return errors.As(err, &dnf)
}
