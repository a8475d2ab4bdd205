package domain_test

import (
	"testing"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSymbolName(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		wantErr error
	}{
		{
			name:    "valid ticker",
			symbol:  "RELIANCE",
			wantErr: nil,
		},
		{
			name:    "valid ticker with digits",
			symbol:  "3MINDIA",
			wantErr: nil,
		},
		{
			name:    "valid ticker with ampersand",
			symbol:  "M&M",
			wantErr: nil,
		},
		{
			name:    "valid ticker with dash",
			symbol:  "BAJAJ-AUTO",
			wantErr: nil,
		},
		{
			name:    "valid scheme code",
			symbol:  "120503",
			wantErr: nil,
		},
		{
			name:    "empty symbol",
			symbol:  "",
			wantErr: domain.ErrInvalidSymbol,
		},
		{
			name:    "too long symbol",
			symbol:  "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
			wantErr: domain.ErrInvalidSymbol,
		},
		{
			name:    "lowercase symbol",
			symbol:  "reliance",
			wantErr: domain.ErrInvalidSymbol,
		},
		{
			name:    "symbol with underscore",
			symbol:  "TATA_MOTORS",
			wantErr: domain.ErrInvalidSymbol,
		},
		{
			name:    "symbol with space",
			symbol:  "TATA MOTORS",
			wantErr: domain.ErrInvalidSymbol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateSymbolName(tt.symbol)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, domain.AssetEquity, domain.KindOf("RELIANCE"))
	assert.Equal(t, domain.AssetEquity, domain.KindOf("3MINDIA"))
	assert.Equal(t, domain.AssetEquity, domain.KindOf("BAJAJ-AUTO"))
	assert.Equal(t, domain.AssetMutualFund, domain.KindOf("120503"))
	assert.Equal(t, domain.AssetMutualFund, domain.KindOf("0"))
	assert.Equal(t, domain.AssetEquity, domain.KindOf(""))
}

func TestQualifySymbol(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		want   string
	}{
		{"equity ticker", "RELIANCE", "NSE:RELIANCE"},
		{"ticker starting with digit", "3MINDIA", "NSE:3MINDIA"},
		{"mutual fund scheme code", "120503", "MF:120503"},
		{"lowercase input normalized", "reliance", "NSE:RELIANCE"},
		{"whitespace trimmed", "  INFY ", "NSE:INFY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.QualifySymbol(tt.symbol))
		})
	}
}

func TestNewTrackedSymbol(t *testing.T) {
	t.Run("creates equity symbol", func(t *testing.T) {
		symbol, err := domain.NewTrackedSymbol("reliance")
		require.NoError(t, err)
		assert.Equal(t, "RELIANCE", symbol.Name)
		assert.Equal(t, domain.AssetEquity, symbol.Kind)
		assert.True(t, symbol.Active)
		assert.NotZero(t, symbol.CreatedAt)
		assert.NotZero(t, symbol.UpdatedAt)
	})

	t.Run("creates mutual fund symbol", func(t *testing.T) {
		symbol, err := domain.NewTrackedSymbol("120503")
		require.NoError(t, err)
		assert.Equal(t, domain.AssetMutualFund, symbol.Kind)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		symbol, err := domain.NewTrackedSymbol("  INFY  ")
		require.NoError(t, err)
		assert.Equal(t, "INFY", symbol.Name)
	})

	t.Run("rejects invalid symbol", func(t *testing.T) {
		_, err := domain.NewTrackedSymbol("bad symbol!")
		assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
	})
}

func TestTrackedSymbol_Deactivate(t *testing.T) {
	symbol, err := domain.NewTrackedSymbol("RELIANCE")
	require.NoError(t, err)
	assert.True(t, symbol.Active)

	originalUpdatedAt := symbol.UpdatedAt
	symbol.Deactivate()

	assert.False(t, symbol.Active)
	assert.True(t, symbol.UpdatedAt.After(originalUpdatedAt) || symbol.UpdatedAt.Equal(originalUpdatedAt))
}

func TestTrackedSymbol_Activate(t *testing.T) {
	symbol, err := domain.NewTrackedSymbol("RELIANCE")
	require.NoError(t, err)
	symbol.Deactivate()
	assert.False(t, symbol.Active)

	symbol.Activate()
	assert.True(t, symbol.Active)
}
