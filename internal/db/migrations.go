package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
)

// Migration changes the schema created by createTables. Each one runs once, inside its
// own transaction, in ascending ID order.
type Migration struct {
	ID          int
	Description string
	Up          func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []Migration{
	{
		ID:          1,
		Description: "record where imported documents came from",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `ALTER TABLE documents ADD COLUMN source_path TEXT`)
			return err
		},
	},
	{
		ID:          2,
		Description: "index documents flagged as not a receipt",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_documents_not_receipt ON documents(not_receipt)`)
			return err
		},
	},
}

// ApplyMigrations runs every migration not yet recorded in schema_migrations
func ApplyMigrations(ctx context.Context, db *sql.DB, logger *log.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.ID, m.Description, err)
		}
		logger.Info("Applied migration", "id", m.ID, "description", m.Description)
	}
	return nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

func applyMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.Up(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (id, description) VALUES (?, ?)`, m.ID, m.Description); err != nil {
		return err
	}
	return tx.Commit()
}
