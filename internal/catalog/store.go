// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/stylecast/stylecast/internal/config"
	"github.com/stylecast/stylecast/internal/logging"
	"github.com/stylecast/stylecast/internal/trend"
)

// ErrNotFound indicates the requested item does not exist.
var ErrNotFound = errors.New("catalog: item not found")

// ErrDuplicateID indicates an insert collided with an existing item ID.
var ErrDuplicateID = errors.New("catalog: duplicate item id")

// Store wraps the DuckDB connection and provides item and trend persistence.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the catalog database at cfg.Path and initializes
// the schema.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network environments
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// DuckDB is an embedded single-writer engine; a small pool is enough.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn}
	if err := s.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("Catalog database opened")
	return s, nil
}

// NewInMemory opens an in-memory catalog, used by tests.
func NewInMemory() (*Store, error) {
	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id         VARCHAR PRIMARY KEY,
			source     VARCHAR NOT NULL DEFAULT '',
			url        VARCHAR NOT NULL DEFAULT '',
			local_path VARCHAR NOT NULL DEFAULT '',
			ts         TIMESTAMP NOT NULL,
			category   VARCHAR NOT NULL,
			prob       DOUBLE NOT NULL DEFAULT 0,
			embedding  BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)`,
		`CREATE INDEX IF NOT EXISTS idx_items_ts ON items(ts)`,
		`CREATE TABLE IF NOT EXISTS trends (
			category VARCHAR NOT NULL,
			day      TIMESTAMP NOT NULL,
			count    INTEGER NOT NULL,
			ema      DOUBLE NOT NULL,
			velocity DOUBLE NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// InsertItem stores a new item. The item ID must be unique.
func (s *Store) InsertItem(ctx context.Context, item Item) error {
	var exists int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, item.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check item existence: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO items (id, source, url, local_path, ts, category, prob, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Source, item.URL, item.LocalPath,
		item.Timestamp.UTC(), item.Category, item.Prob, EncodeEmbedding(item.Embedding))
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
	}
	return nil
}

// GetItem fetches a single item by ID.
func (s *Store) GetItem(ctx context.Context, id string) (Item, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, source, url, local_path, ts, category, prob, embedding
		 FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Item{}, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	return item, nil
}

// ListItems returns all items in insertion (rowid) order. Insertion order is
// what the index builder relies on for deterministic tie-breaking.
func (s *Store) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, source, url, local_path, ts, category, prob, embedding
		 FROM items ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer closeRows(rows)

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("item iteration failed: %w", err)
	}
	return items, nil
}

// CountItems returns the number of catalogued items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// CountByCategory returns item counts keyed by category.
func (s *Store) CountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM items GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	defer closeRows(rows)

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category count iteration failed: %w", err)
	}
	return counts, nil
}

// ReplaceTrends atomically replaces the persisted trend snapshot with the
// given points. An empty slice clears the table.
func (s *Store) ReplaceTrends(ctx context.Context, points []trend.Point) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin trend transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM trends`); err != nil {
		return fmt.Errorf("failed to clear trends: %w", err)
	}
	for _, p := range points {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO trends (category, day, count, ema, velocity) VALUES (?, ?, ?, ?, ?)`,
			p.Category, p.Day.UTC(), p.Count, p.EMA, p.Velocity)
		if err != nil {
			return fmt.Errorf("failed to insert trend point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trends: %w", err)
	}
	return nil
}

// ListTrends returns persisted trend points ordered by category then day.
// With a non-empty category, only that category's points are returned.
func (s *Store) ListTrends(ctx context.Context, category string) ([]trend.Point, error) {
	query := `SELECT category, day, count, ema, velocity FROM trends`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, day`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trends: %w", err)
	}
	defer closeRows(rows)

	var points []trend.Point
	for rows.Next() {
		var p trend.Point
		if err := rows.Scan(&p.Category, &p.Day, &p.Count, &p.EMA, &p.Velocity); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		p.Day = p.Day.UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trend iteration failed: %w", err)
	}
	return points, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	var blob []byte
	if err := row.Scan(&item.ID, &item.Source, &item.URL, &item.LocalPath,
		&item.Timestamp, &item.Category, &item.Prob, &blob); err != nil {
		return Item{}, err
	}
	item.Timestamp = item.Timestamp.UTC()
	emb, err := DecodeEmbedding(blob)
	if err != nil {
		return Item{}, fmt.Errorf("item %s: %w", item.ID, err)
	}
	item.Embedding = emb
	return item, nil
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close result rows")
	}
}

func rollbackQuietly(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Warn().Err(err).Msg("Failed to roll back transaction")
	}
}
