// Package duckdb stores extracted structural variant scores in DuckDB so
// results from many samples can be queried together.
package duckdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding extracted scores.
type Store struct {
	db   *sqlx.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path, empty for in-memory databases.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sv_scores (
		source VARCHAR,
		line BIGINT,
		chrom VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		max_path_score DOUBLE,
		max_path_var VARCHAR,
		max_overlap_score DOUBLE,
		max_overlap_var VARCHAR
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sources (
		source VARCHAR PRIMARY KEY,
		size BIGINT,
		mod_time TIMESTAMP,
		row_count BIGINT,
		loaded_at TIMESTAMP
	)`)
	return err
}
