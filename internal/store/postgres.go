package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresBackend stores one row per record in a single keyed table.
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema creates the flowcharts table if it does not exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS flowcharts (
			storage_key TEXT PRIMARY KEY,
			content     BYTEA NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure flowcharts schema: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, content []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO flowcharts (storage_key, content, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (storage_key) DO UPDATE SET content=EXCLUDED.content, updated_at=NOW()
	`, key, content)
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, Entry, error) {
	var entry Entry
	var content []byte
	entry.Key = key
	err := b.db.QueryRowContext(ctx, `
		SELECT content, OCTET_LENGTH(content), updated_at
		FROM flowcharts
		WHERE storage_key=$1
	`, key).Scan(&content, &entry.Size, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Entry{}, ErrNotFound
	}
	if err != nil {
		return nil, Entry{}, fmt.Errorf("get record: %w", err)
	}
	return content, entry, nil
}

func (b *PostgresBackend) Stat(ctx context.Context, key string) (Entry, error) {
	var entry Entry
	entry.Key = key
	err := b.db.QueryRowContext(ctx, `
		SELECT OCTET_LENGTH(content), updated_at
		FROM flowcharts
		WHERE storage_key=$1
	`, key).Scan(&entry.Size, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("stat record: %w", err)
	}
	return entry, nil
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM flowcharts WHERE storage_key=$1`, key)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (b *PostgresBackend) List(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT storage_key, OCTET_LENGTH(content), updated_at
		FROM flowcharts
		WHERE starts_with(storage_key, $1)
		ORDER BY storage_key ASC
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Key, &entry.Size, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return entries, nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}
