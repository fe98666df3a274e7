package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/R3E-Network/agentsvc/store"
)

// KvStore is the Postgres-backed store.KvStore implementation.
type KvStore struct {
	db *DB
}

// NewKvStore wraps db for use as a store.KvStore.
func NewKvStore(db *DB) *KvStore {
	return &KvStore{db: db}
}

func (s *KvStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.conn.GetContext(ctx, &value, `SELECT value FROM kv_store WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *KvStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *KvStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *KvStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.conn.SelectContext(ctx, &keys,
		`SELECT key FROM kv_store WHERE key LIKE $1 ORDER BY key`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list prefix %s: %w", prefix, err)
	}
	return keys, nil
}

// CompareAndSwap implements the optimistic-concurrency contract within a
// single transaction: the row is locked with FOR UPDATE so concurrent
// swaps on the same key serialize instead of racing.
func (s *KvStore) CompareAndSwap(ctx context.Context, key string, oldValue, newValue []byte) (bool, error) {
	tx, err := s.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin cas %s: %w", key, err)
	}
	defer tx.Rollback()

	var current []byte
	err = tx.GetContext(ctx, &current, `SELECT value FROM kv_store WHERE key = $1 FOR UPDATE`, key)
	switch {
	case err == sql.ErrNoRows:
		if oldValue != nil {
			return false, nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())`, key, newValue); err != nil {
			return false, fmt.Errorf("cas insert %s: %w", key, err)
		}
	case err != nil:
		return false, fmt.Errorf("cas lookup %s: %w", key, err)
	default:
		if oldValue == nil || !bytesEqual(current, oldValue) {
			return false, nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE kv_store SET value = $2, updated_at = now() WHERE key = $1`, key, newValue); err != nil {
			return false, fmt.Errorf("cas update %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit cas %s: %w", key, err)
	}
	return true, nil
}

func (s *KvStore) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
