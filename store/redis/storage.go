package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-appclient/core"
	"github.com/redis/go-redis/v9"
)

type Option func(*Storage)

// WithPrefix namespaces every key written by the storage.
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

// WithTTL expires entries that are not rewritten within ttl. Zero keeps
// entries until removed.
func WithTTL(ttl time.Duration) Option {
	return func(s *Storage) {
		if ttl < 0 {
			ttl = 0
		}
		s.ttl = ttl
	}
}

// Storage is a core.Storage on Redis, suitable when completion payloads are
// written by a different process than the one awaiting them.
type Storage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ core.Storage = (*Storage)(nil)

func NewStorage(client redis.UniversalClient, opts ...Option) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: redis client is required")
	}
	s := &Storage{client: client}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Open connects to the Redis server at url (redis://host:port/db) and pings
// it once.
func Open(ctx context.Context, url string) (redis.UniversalClient, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("redisstore: redis url is required")
	}
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse redis url: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return client, nil
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.client == nil {
		return "", false, fmt.Errorf("redisstore: storage is not configured")
	}
	value, err := s.client.Get(ctx, s.prefixedKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *Storage) Set(ctx context.Context, key string, value string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redisstore: storage is not configured")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("redisstore: storage key is required")
	}
	return s.client.Set(ctx, s.prefixedKey(key), value, s.ttl).Err()
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redisstore: storage is not configured")
	}
	return s.client.Del(ctx, s.prefixedKey(key)).Err()
}

func (s *Storage) prefixedKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
