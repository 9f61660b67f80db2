package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteBackend keeps documents as rows of the documents table.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

func (b *SQLiteBackend) Load(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := b.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("select document %q: %w", name, err)
	}
	return []byte(body), nil
}

func (b *SQLiteBackend) Save(ctx context.Context, name string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert document %q: %w", name, err)
	}
	return nil
}
