package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Postgres is a Backend storing each collection as one jsonb row in kv_collections.
// Update locks the row for the duration of the read-modify-write.
type Postgres struct {
	DB *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// Get returns the raw value under key.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_collections WHERE key = $1`
	var raw []byte
	if err := p.DB.QueryRowContext(ctx, query, key).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return raw, nil
}

// Set upserts the value under key.
func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	const query = `
INSERT INTO kv_collections (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET
  value = EXCLUDED.value,
  updated_at = now()`
	if _, err := p.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

// Update runs fn while holding a row lock on key.
func (p *Postgres) Update(ctx context.Context, key string, fn UpdateFunc) (err error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres begin %s: %w", key, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const ensure = `INSERT INTO kv_collections (key, value, updated_at) VALUES ($1, '{}'::jsonb, now()) ON CONFLICT (key) DO NOTHING`
	if _, err = tx.ExecContext(ctx, ensure, key); err != nil {
		return fmt.Errorf("postgres ensure %s: %w", key, err)
	}

	const lock = `SELECT value FROM kv_collections WHERE key = $1 FOR UPDATE`
	var current []byte
	if err = tx.QueryRowContext(ctx, lock, key).Scan(&current); err != nil {
		return fmt.Errorf("postgres lock %s: %w", key, err)
	}

	next, write, err := fn(current, true)
	if err != nil {
		return err
	}
	if write {
		const update = `UPDATE kv_collections SET value = $2, updated_at = now() WHERE key = $1`
		if _, err = tx.ExecContext(ctx, update, key, next); err != nil {
			return fmt.Errorf("postgres update %s: %w", key, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres commit %s: %w", key, err)
	}
	return nil
}
