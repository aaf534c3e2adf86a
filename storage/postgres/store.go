package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/poiesic/lahza/storage"
)

//go:embed schema.sql
var schemaSQL string

// Postgres error codes mapped onto storage errors.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// Store implements storage.Store on Postgres with the pgvector extension.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// NewStore connects a pool to databaseURL and registers the vector type on
// every connection. The schema must already be applied (see Migrate).
//
// Returns storage.Store interface to enforce abstraction.
func NewStore(ctx context.Context, databaseURL string) (storage.Store, error) {
	return newStore(ctx, databaseURL)
}

func newStore(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{
		pool:   pool,
		logger: slog.Default().With("component", "postgres-store"),
	}, nil
}

// Migrate applies the embedded schema to the database at databaseURL.
// It uses a plain connection since the vector type may not exist yet.
func Migrate(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// mapError translates driver errors into storage errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", storage.ErrNotFound, pgErr.Detail)
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, pgErr.Detail)
		}
	}
	return err
}
