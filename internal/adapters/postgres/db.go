package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prxgr4mmer/price-resolver/internal/config"
)

const defaultMigrationsPath = "file://migrations"

// DB wraps the PostgreSQL connection pool shared by the quote cache, the
// history log, and the tracked-symbol store.
type DB struct {
	Pool           *pgxpool.Pool
	databaseURL    string
	migrationsPath string
	logger         *slog.Logger
}

// DBOption configures the database wrapper
type DBOption func(*DB)

// WithMigrationsPath overrides where migration files are read from
func WithMigrationsPath(path string) DBOption {
	return func(db *DB) {
		if path != "" {
			db.migrationsPath = path
		}
	}
}

// NewDB opens a connection pool and verifies connectivity
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger, opts ...DBOption) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		Pool:           pool,
		databaseURL:    cfg.URL,
		migrationsPath: defaultMigrationsPath,
		logger:         logger.With("component", "postgres"),
	}
	for _, opt := range opts {
		opt(db)
	}

	db.logger.Info("database connection established",
		"max_conns", cfg.MaxOpenConns,
		"min_conns", cfg.MaxIdleConns,
	)

	return db, nil
}

// Migrate applies any pending schema migrations
func (db *DB) Migrate() error {
	db.logger.Info("running database migrations", "path", db.migrationsPath)

	m, err := migrate.New(db.migrationsPath, db.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	db.logger.Info("migrations completed", "version", version, "dirty", dirty)
	return nil
}

// Close closes the connection pool
func (db *DB) Close() {
	db.logger.Info("closing database connection")
	db.Pool.Close()
}

// Ping checks if the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
