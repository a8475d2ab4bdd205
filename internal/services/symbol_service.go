package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// SymbolService implements the ports.SymbolService interface. The tracked
// set is the symbol universe the refresh worker maintains and the reference
// set for orphaned-cache cleanup.
type SymbolService struct {
	repo   ports.SymbolRepository
	logger *slog.Logger
}

// NewSymbolService creates a new symbol service
func NewSymbolService(repo ports.SymbolRepository, logger *slog.Logger) *SymbolService {
	return &SymbolService{
		repo:   repo,
		logger: logger.With("component", "symbol_service"),
	}
}

// TrackSymbol registers a symbol referenced by a holding
func (s *SymbolService) TrackSymbol(ctx context.Context, name string) (*domain.TrackedSymbol, error) {
	name = strings.ToUpper(strings.TrimSpace(name))

	symbol, err := domain.NewTrackedSymbol(name)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, name)
	if err != nil {
		s.logger.Error("failed to check symbol existence", "symbol", name, "error", err)
		return nil, domain.ErrInternal
	}
	if exists {
		return nil, domain.ErrSymbolExists
	}

	if err := s.repo.Create(ctx, symbol); err != nil {
		s.logger.Error("failed to create symbol", "symbol", name, "error", err)
		return nil, domain.ErrInternal
	}

	s.logger.Info("symbol tracked", "symbol", name, "kind", symbol.Kind, "id", symbol.ID)
	return symbol, nil
}

// UntrackSymbol stops tracking a symbol
func (s *SymbolService) UntrackSymbol(ctx context.Context, name string) error {
	name = strings.ToUpper(strings.TrimSpace(name))

	if err := s.repo.Delete(ctx, name); err != nil {
		if errors.Is(err, domain.ErrSymbolNotFound) {
			return err
		}
		s.logger.Error("failed to delete symbol", "symbol", name, "error", err)
		return domain.ErrInternal
	}

	s.logger.Info("symbol untracked", "symbol", name)
	return nil
}

// ListSymbols returns all tracked symbols
func (s *SymbolService) ListSymbols(ctx context.Context) ([]*domain.TrackedSymbol, error) {
	symbols, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list symbols", "error", err)
		return nil, domain.ErrInternal
	}
	return symbols, nil
}

// GetSymbol retrieves a specific symbol
func (s *SymbolService) GetSymbol(ctx context.Context, name string) (*domain.TrackedSymbol, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	return s.repo.GetByName(ctx, name)
}

// SymbolExists checks if a symbol is being tracked
func (s *SymbolService) SymbolExists(ctx context.Context, name string) (bool, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	return s.repo.Exists(ctx, name)
}

// Ensure SymbolService implements ports.SymbolService
var _ ports.SymbolService = (*SymbolService)(nil)
