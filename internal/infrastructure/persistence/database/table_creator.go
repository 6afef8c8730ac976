package database

import (
	"context"
	"fmt"
)

// TableCreator handles the creation of the plugin schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes. It is idempotent.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *DB) error {
	for _, tableSQL := range tables {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS parts (id INTEGER PRIMARY KEY, name TEXT NOT NULL, ipn TEXT NOT NULL DEFAULT '', active BOOLEAN NOT NULL DEFAULT 1)`,
	`CREATE TABLE IF NOT EXISTS part_numbers (part_id INTEGER NOT NULL REFERENCES parts(id) ON DELETE CASCADE, kind TEXT NOT NULL, value TEXT NOT NULL, PRIMARY KEY (part_id, kind, value))`,
	`CREATE TABLE IF NOT EXISTS harnesses (part_id INTEGER PRIMARY KEY REFERENCES parts(id) ON DELETE CASCADE, source_file TEXT NOT NULL DEFAULT '', svg_file TEXT NOT NULL DEFAULT '', preview_file TEXT NOT NULL DEFAULT '', bom_data TEXT NOT NULL DEFAULT '[]', errors TEXT NOT NULL DEFAULT '[]', warnings TEXT NOT NULL DEFAULT '[]', updated_at INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_parts_ipn ON parts(lower(ipn))`,
	`CREATE INDEX IF NOT EXISTS idx_parts_name ON parts(lower(name))`,
	`CREATE INDEX IF NOT EXISTS idx_part_numbers_value ON part_numbers(lower(value))`,
}
