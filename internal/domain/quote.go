package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source suffixes recording which fallback tier produced a price
const (
	SourceSuffixStale       = "_STALE"
	SourceSuffixExpired     = "_EXPIRED"
	SourceHistoricalAverage = "HISTORICAL_AVERAGE"
)

// Confidence is a coarse trust label attached to a resolved price
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Quote is the cached price entry for a symbol, at most one per symbol
type Quote struct {
	Symbol      string          `json:"symbol"`
	Price       decimal.Decimal `json:"price"`
	Source      string          `json:"source"`
	LastUpdated time.Time       `json:"last_updated"`
}

// NewQuote creates a cache entry stamped with the current time
func NewQuote(symbol string, price decimal.Decimal, source string) *Quote {
	return &Quote{
		Symbol:      symbol,
		Price:       price,
		Source:      source,
		LastUpdated: time.Now().UTC(),
	}
}

// HistoryRecord is one append-only price observation for a symbol
type HistoryRecord struct {
	ID        int64           `json:"id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewHistoryRecord creates a history record stamped with the current time
func NewHistoryRecord(symbol string, price decimal.Decimal, source string) *HistoryRecord {
	return &HistoryRecord{
		Symbol:    symbol,
		Price:     price,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// ResolvedPrice is the value returned to callers of the resolution facade
type ResolvedPrice struct {
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	Source       string          `json:"source"`
	Cached       bool            `json:"cached"`
	FallbackUsed bool            `json:"fallback_used"`
	Confidence   Confidence      `json:"confidence"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// BatchResult is the per-symbol outcome of a bulk price request.
// A nil Price with a non-empty Error is a normal partial-failure entry,
// not a batch-level failure.
type BatchResult struct {
	Symbol string           `json:"symbol"`
	Price  *decimal.Decimal `json:"price"`
	Error  string           `json:"error,omitempty"`
}

// CacheStats summarizes the quote cache by staleness tier
type CacheStats struct {
	Count        int        `json:"count"`
	FreshCount   int        `json:"fresh_count"`
	StaleCount   int        `json:"stale_count"`
	ExpiredCount int        `json:"expired_count"`
	OldestEntry  *time.Time `json:"oldest_entry,omitempty"`
	NewestEntry  *time.Time `json:"newest_entry,omitempty"`
}

// Metrics represents operational metrics
type Metrics struct {
	Uptime              float64    `json:"uptime_seconds"`
	TrackedSymbols      int        `json:"tracked_symbols"`
	ActiveSymbols       int        `json:"active_symbols"`
	Cache               CacheStats `json:"cache"`
	HistoryRecords      int64      `json:"history_records"`
	LastRefreshTime     *time.Time `json:"last_refresh_time,omitempty"`
	LastRefreshDuration float64    `json:"last_refresh_duration_ms"`
	RefreshSuccessCount int64      `json:"refresh_success_count"`
	RefreshErrorCount   int64      `json:"refresh_error_count"`
	FallbackCount       int64      `json:"fallback_count"`
	DatabaseStatus      string     `json:"database_status"`
	UpstreamStatus      string     `json:"upstream_status"`
}
