// Package postgres is the pgx-backed Repository implementation.
// Store wraps a single *pgxpool.Pool, constructed from a caller-supplied
// DSN so tests can point it at a throwaway database.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"marketintel/internal/repository"
)

// Store is the pgx-backed Repository. Construct with Open.
type Store struct {
	pool *pgxpool.Pool
}

// Open parses dsn and establishes a connection pool.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

var _ repository.Repository = (*Store)(nil)
