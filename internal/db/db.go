package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lox/receipt-matcher/internal/types"
)

const dateFormat = "2006-01-02"

// ErrNotFound is returned when a document id is not in the store
var ErrNotFound = errors.New("document not found")

// Document is a stored supporting document
type Document struct {
	types.LocalItem
	SourcePath string
	ImportedAt time.Time
}

// DB represents a SQLite database connection
type DB struct {
	db       *sql.DB
	logger   *log.Logger
	timezone *time.Location
}

// New creates a new database connection
func New(dataDir string, logger *log.Logger, timezone *time.Location) (*DB, error) {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "documents.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set database pragmas: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &DB{
		db:       db,
		logger:   logger,
		timezone: timezone,
	}, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size INTEGER NOT NULL DEFAULT 0,
			-- Linkage
			transaction_id TEXT,
			not_receipt INTEGER NOT NULL DEFAULT 0,
			-- Extracted metadata
			date TEXT,
			amount INTEGER,
			currency TEXT,
			counterparty TEXT,
			tax_id TEXT,
			bank_id TEXT,
			website TEXT,
			-- Imported email details
			email_subject TEXT,
			email_sender TEXT,
			text TEXT,
			imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_documents_transaction ON documents(transaction_id)",
		"CREATE INDEX IF NOT EXISTS idx_documents_date ON documents(date)",
	}
	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// DocumentID derives a stable document id from its content
func DocumentID(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:16]
}

// Store inserts or replaces a document. Linkage set on an existing row is kept.
func (d *DB) Store(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	d.logger.Debug("Storing document", "id", doc.ID, "filename", doc.Filename, "content_type", doc.ContentType)

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, filename, content_type, size,
			transaction_id, not_receipt,
			date, amount, currency, counterparty, tax_id, bank_id, website,
			email_subject, email_sender, text, source_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			content_type = excluded.content_type,
			size = excluded.size,
			date = excluded.date,
			amount = excluded.amount,
			currency = excluded.currency,
			counterparty = excluded.counterparty,
			tax_id = excluded.tax_id,
			bank_id = excluded.bank_id,
			website = excluded.website,
			email_subject = excluded.email_subject,
			email_sender = excluded.email_sender,
			text = excluded.text,
			source_path = excluded.source_path
	`,
		doc.ID, doc.Filename, doc.ContentType, doc.Size,
		nullString(doc.TransactionID), doc.NotReceipt,
		nullDate(doc.Date), nullInt(doc.Amount), nullString(doc.Currency), nullString(doc.Counterparty),
		nullString(doc.TaxID), nullString(doc.BankID), nullString(doc.Website),
		nullString(doc.EmailSubject), nullString(doc.EmailSender), nullString(doc.Text), nullString(doc.SourcePath),
	)
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

const selectColumns = `
	id, filename, content_type, size,
	transaction_id, not_receipt,
	date, amount, currency, counterparty, tax_id, bank_id, website,
	email_subject, email_sender, text, source_path, imported_at`

type scanner interface {
	Scan(dest ...any) error
}

func (d *DB) scanDocument(row scanner) (Document, error) {
	var doc Document
	var (
		transactionID, date, currency, counterparty sql.NullString
		taxID, bankID, website                      sql.NullString
		emailSubject, emailSender, text, sourcePath sql.NullString
		importedAt                                  sql.NullString
		amount                                      sql.NullInt64
	)
	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.ContentType, &doc.Size,
		&transactionID, &doc.NotReceipt,
		&date, &amount, &currency, &counterparty, &taxID, &bankID, &website,
		&emailSubject, &emailSender, &text, &sourcePath, &importedAt,
	)
	if err != nil {
		return Document{}, err
	}

	doc.TransactionID = transactionID.String
	doc.Currency = currency.String
	doc.Counterparty = counterparty.String
	doc.TaxID = taxID.String
	doc.BankID = bankID.String
	doc.Website = website.String
	doc.EmailSubject = emailSubject.String
	doc.EmailSender = emailSender.String
	doc.Text = text.String
	doc.SourcePath = sourcePath.String
	doc.ImportedAt = parseTimestamp(importedAt.String)

	if amount.Valid {
		v := amount.Int64
		doc.Amount = &v
	}
	if date.Valid && date.String != "" {
		parsed, err := time.ParseInLocation(dateFormat, date.String, d.timezone)
		if err != nil {
			return Document{}, fmt.Errorf("invalid date %q for document %s: %w", date.String, doc.ID, err)
		}
		doc.Date = &parsed
	}
	return doc, nil
}

// Get retrieves a document by id, or nil if it doesn't exist
func (d *DB) Get(ctx context.Context, id string) (*Document, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM documents WHERE id = ?`, id)
	doc, err := d.scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// listOptions defines options for listing documents
type listOptions struct {
	unlinkedOnly bool
	since        *time.Time
	limit        int
}

// ListOption is a function that modifies listOptions
type ListOption func(*listOptions)

// UnlinkedOnly skips documents already attached to a transaction or flagged as not a receipt
func UnlinkedOnly() ListOption {
	return func(opts *listOptions) {
		opts.unlinkedOnly = true
	}
}

// Since skips dated documents older than t. Undated documents are always listed.
func Since(t time.Time) ListOption {
	return func(opts *listOptions) {
		opts.since = &t
	}
}

// WithLimit caps the number of documents listed
func WithLimit(limit int) ListOption {
	return func(opts *listOptions) {
		opts.limit = limit
	}
}

// ListDocuments materializes the local collection in import order
func (d *DB) ListDocuments(ctx context.Context, opts ...ListOption) ([]types.LocalItem, error) {
	var options listOptions
	for _, opt := range opts {
		opt(&options)
	}

	var where []string
	var args []any
	if options.unlinkedOnly {
		where = append(where, "transaction_id IS NULL", "not_receipt = 0")
	}
	if options.since != nil {
		where = append(where, "(date IS NULL OR date >= ?)")
		args = append(args, options.since.Format(dateFormat))
	}

	query := `SELECT ` + selectColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY imported_at, rowid"
	if options.limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.limit)
	}

	startTime := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var items []types.LocalItem
	for rows.Next() {
		doc, err := d.scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		items = append(items, doc.LocalItem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	d.logger.Debug("Listed documents", "count", len(items), "duration", time.Since(startTime))
	return items, nil
}

// Link attaches a document to a transaction
func (d *DB) Link(ctx context.Context, id, transactionID string) error {
	if transactionID == "" {
		return fmt.Errorf("transaction id is required")
	}
	return d.update(ctx, id, `UPDATE documents SET transaction_id = ? WHERE id = ?`, transactionID, id)
}

// Unlink detaches a document from its transaction
func (d *DB) Unlink(ctx context.Context, id string) error {
	return d.update(ctx, id, `UPDATE documents SET transaction_id = NULL WHERE id = ?`, id)
}

// MarkNotReceipt flags or unflags a document as not being a receipt
func (d *DB) MarkNotReceipt(ctx context.Context, id string, notReceipt bool) error {
	return d.update(ctx, id, `UPDATE documents SET not_receipt = ? WHERE id = ?`, notReceipt, id)
}

func (d *DB) update(ctx context.Context, id, query string, args ...any) error {
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Has checks if a document exists in the database
func (d *DB) Has(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check document existence: %w", err)
	}
	return exists, nil
}

// Count returns the number of documents in the database
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// parseTimestamp reads CURRENT_TIMESTAMP values, which SQLite stores as UTC text
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateFormat), Valid: true}
}
