package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// QuoteProvider defines the contract for fetching prices from the upstream
// quote endpoint. Symbols are passed in upstream-qualified form
// (e.g. NSE:RELIANCE, MF:120503) and the response maps qualified symbols to
// prices; symbols the upstream does not know are simply absent.
type QuoteProvider interface {
	// ServiceKey identifies the upstream for rate limiting and as the
	// source recorded on cache and history writes
	ServiceKey() string

	// FetchQuotes fetches current prices for the qualified symbols in a
	// single bulk request
	FetchQuotes(ctx context.Context, qualifiedSymbols []string) (map[string]decimal.Decimal, error)

	// Ping checks if the upstream is reachable
	Ping(ctx context.Context) error
}
