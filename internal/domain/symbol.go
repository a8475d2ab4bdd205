package domain

import (
	"strings"
	"time"
	"unicode"
)

// AssetKind distinguishes the two classes of tracked instruments
type AssetKind string

const (
	// AssetEquity is an exchange-listed ticker, quoted under the NSE prefix
	AssetEquity AssetKind = "equity"
	// AssetMutualFund is an AMFI scheme code, quoted under the MF prefix
	AssetMutualFund AssetKind = "mutual_fund"
)

// TrackedSymbol is an instrument some holding references. The tracked set
// defines which quotes the refresh worker maintains and which cache entries
// are considered orphaned.
type TrackedSymbol struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      AssetKind `json:"kind"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTrackedSymbol creates a tracked symbol with validation
func NewTrackedSymbol(name string) (*TrackedSymbol, error) {
	name = strings.ToUpper(strings.TrimSpace(name))

	if err := ValidateSymbolName(name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &TrackedSymbol{
		Name:      name,
		Kind:      KindOf(name),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateSymbolName validates a bare symbol identifier.
// Tickers are uppercase alphanumeric, optionally with '-' or '&'
// (e.g. M&M, BAJAJ-AUTO); scheme codes are plain digits. 1-20 characters.
func ValidateSymbolName(name string) error {
	if name == "" {
		return ErrInvalidSymbol
	}

	if len(name) > 20 {
		return ErrInvalidSymbol
	}

	for _, r := range name {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) && r != '-' && r != '&' {
			return ErrInvalidSymbol
		}
	}

	return nil
}

// KindOf derives the asset kind from the bare identifier: all-digit names
// are AMFI mutual-fund scheme codes, everything else an exchange ticker.
func KindOf(name string) AssetKind {
	if name == "" {
		return AssetEquity
	}
	for _, r := range name {
		if !unicode.IsDigit(r) {
			return AssetEquity
		}
	}
	return AssetMutualFund
}

// QualifySymbol maps a bare identifier to the upstream-qualified key,
// e.g. RELIANCE -> NSE:RELIANCE and 120503 -> MF:120503. Pure function,
// applied identically when building requests and parsing responses.
func QualifySymbol(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if KindOf(name) == AssetMutualFund {
		return "MF:" + name
	}
	return "NSE:" + name
}

// Deactivate marks the symbol as inactive
func (s *TrackedSymbol) Deactivate() {
	s.Active = false
	s.UpdatedAt = time.Now().UTC()
}

// Activate marks the symbol as active
func (s *TrackedSymbol) Activate() {
	s.Active = true
	s.UpdatedAt = time.Now().UTC()
}
