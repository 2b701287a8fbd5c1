// Package redisstore keeps session records in Redis so several UIs can share one sign-in.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskopia/taskopia/internal/app"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "taskopia:"

// Options configures a Store.
type Options struct {
	Prefix string
	// TTL expires records after the duration. Zero keeps them until deleted.
	TTL time.Duration
}

// Store implements app.SessionStore on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New wraps client. The caller owns the client and closes it.
func New(client *redis.Client, opts Options) *Store {
	if client == nil {
		panic("redisstore.New: client is nil")
	}
	prefix := opts.Prefix
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Dial connects to addr and checks the server answers.
func Dial(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Get returns the value under key or app.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, app.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *Store) key(key string) string {
	return s.prefix + key
}
