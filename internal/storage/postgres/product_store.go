// Package postgres provides a Postgres-backed product store. Products are
// persisted as JSONB documents keyed by locator, so the schema never
// chases the document shape.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for product rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ProductStore implements tracker.ProductStore on Postgres.
type ProductStore struct {
	pool  pool
	table string
}

// New creates a Postgres-backed ProductStore using the provided config.
func New(ctx context.Context, cfg Config) (*ProductStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "tracked_products"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ProductStore{pool: p, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing with pgxmock).
func NewWithPool(p pool, table string) (*ProductStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "tracked_products"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ProductStore{pool: p, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ProductStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// ListAll returns every tracked product document.
func (s *ProductStore) ListAll(ctx context.Context) ([]tracker.TrackedProduct, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s ORDER BY locator`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []tracker.TrackedProduct
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		var product tracker.TrackedProduct
		if err := json.Unmarshal(doc, &product); err != nil {
			return nil, fmt.Errorf("decode product document: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// UpsertByLocator writes the full document atomically and returns the
// post-write document as stored.
func (s *ProductStore) UpsertByLocator(ctx context.Context, product tracker.TrackedProduct) (tracker.TrackedProduct, error) {
	if product.Locator == "" {
		return tracker.TrackedProduct{}, fmt.Errorf("product locator is required")
	}
	doc, err := json.Marshal(product)
	if err != nil {
		return tracker.TrackedProduct{}, fmt.Errorf("encode product document: %w", err)
	}

	query := fmt.Sprintf(`
INSERT INTO %s (locator, doc, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (locator) DO UPDATE
SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
RETURNING doc`, s.table)

	var stored []byte
	if err := s.pool.QueryRow(ctx, query, product.Locator, doc, product.UpdatedAt).Scan(&stored); err != nil {
		return tracker.TrackedProduct{}, fmt.Errorf("upsert product: %w", err)
	}
	var out tracker.TrackedProduct
	if err := json.Unmarshal(stored, &out); err != nil {
		return tracker.TrackedProduct{}, fmt.Errorf("decode stored document: %w", err)
	}
	return out, nil
}

// Get fetches one product document by locator.
func (s *ProductStore) Get(ctx context.Context, locator string) (tracker.TrackedProduct, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE locator = $1`, s.table)
	var doc []byte
	if err := s.pool.QueryRow(ctx, query, locator).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tracker.TrackedProduct{}, tracker.ErrNotFound
		}
		return tracker.TrackedProduct{}, fmt.Errorf("get product: %w", err)
	}
	var product tracker.TrackedProduct
	if err := json.Unmarshal(doc, &product); err != nil {
		return tracker.TrackedProduct{}, fmt.Errorf("decode product document: %w", err)
	}
	return product, nil
}
