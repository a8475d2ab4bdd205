package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// SymbolRepository implements the ports.SymbolRepository interface
type SymbolRepository struct {
	db *DB
}

// NewSymbolRepository creates a new PostgreSQL symbol repository
func NewSymbolRepository(db *DB) ports.SymbolRepository {
	return &SymbolRepository{db: db}
}

// Create adds a new symbol to track
func (r *SymbolRepository) Create(ctx context.Context, symbol *domain.TrackedSymbol) error {
	query := `
		INSERT INTO symbols (name, kind, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		symbol.Name,
		string(symbol.Kind),
		symbol.Active,
		symbol.CreatedAt,
		symbol.UpdatedAt,
	).Scan(&symbol.ID)

	if err != nil {
		return fmt.Errorf("failed to create symbol: %w", err)
	}

	return nil
}

// GetByName retrieves a symbol by its name
func (r *SymbolRepository) GetByName(ctx context.Context, name string) (*domain.TrackedSymbol, error) {
	query := `
		SELECT id, name, kind, active, created_at, updated_at
		FROM symbols
		WHERE name = $1
	`

	symbol, err := r.scanOne(r.db.Pool.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSymbolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol: %w", err)
	}

	return symbol, nil
}

// List returns all tracked symbols
func (r *SymbolRepository) List(ctx context.Context) ([]*domain.TrackedSymbol, error) {
	query := `
		SELECT id, name, kind, active, created_at, updated_at
		FROM symbols
		ORDER BY name
	`

	return r.queryMany(ctx, query)
}

// ListActive returns only active symbols
func (r *SymbolRepository) ListActive(ctx context.Context) ([]*domain.TrackedSymbol, error) {
	query := `
		SELECT id, name, kind, active, created_at, updated_at
		FROM symbols
		WHERE active = true
		ORDER BY name
	`

	return r.queryMany(ctx, query)
}

// Delete removes a symbol by name
func (r *SymbolRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM symbols WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete symbol: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSymbolNotFound
	}

	return nil
}

// Update modifies an existing symbol
func (r *SymbolRepository) Update(ctx context.Context, symbol *domain.TrackedSymbol) error {
	query := `
		UPDATE symbols
		SET kind = $2, active = $3, updated_at = $4
		WHERE name = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		symbol.Name,
		string(symbol.Kind),
		symbol.Active,
		symbol.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update symbol: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSymbolNotFound
	}

	return nil
}

// Count returns total number of symbols
func (r *SymbolRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM symbols`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count symbols: %w", err)
	}

	return count, nil
}

// CountActive returns number of active symbols
func (r *SymbolRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM symbols WHERE active = true`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active symbols: %w", err)
	}

	return count, nil
}

// Exists checks if a symbol is tracked
func (r *SymbolRepository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM symbols WHERE name = $1)`

	if err := r.db.Pool.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check symbol existence: %w", err)
	}

	return exists, nil
}

func (r *SymbolRepository) scanOne(row pgx.Row) (*domain.TrackedSymbol, error) {
	var symbol domain.TrackedSymbol
	var kind string

	err := row.Scan(
		&symbol.ID,
		&symbol.Name,
		&kind,
		&symbol.Active,
		&symbol.CreatedAt,
		&symbol.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	symbol.Kind = domain.AssetKind(kind)
	return &symbol, nil
}

func (r *SymbolRepository) queryMany(ctx context.Context, query string) ([]*domain.TrackedSymbol, error) {
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	var symbols []*domain.TrackedSymbol
	for rows.Next() {
		symbol, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// Ensure SymbolRepository implements ports.SymbolRepository
var _ ports.SymbolRepository = (*SymbolRepository)(nil)
