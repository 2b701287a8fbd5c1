package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskopia/taskopia/internal/app"
)

// SessionStore keeps small key/value records, such as the signed-in user, in the kv table.
type SessionStore struct {
	db *sql.DB
}

// Sessions returns the key/value store sharing the repository's database.
func (r *Repository) Sessions() *SessionStore {
	return &SessionStore{db: r.db}
}

// Get returns the value stored under key or app.ErrNotFound.
func (s *SessionStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, app.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key.
func (s *SessionStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv(key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, ts(time.Now()))
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}
