package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/lahza/storage"
	"github.com/redis/go-redis/v9"
)

// Defaults for the query cache.
const (
	DefaultPrefix = "lahza:qemb:"
	DefaultTTL    = 24 * time.Hour
)

// Redis caches query embeddings in a Redis database.
type Redis struct {
	client *redis.Client
	model  string
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Redis cache.
type Option func(*Redis)

// WithTTL sets how long cached vectors live. Zero means no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Redis) {
		r.logger = logger
	}
}

// Connect parses a redis:// URL, verifies the connection and returns a cache
// for vectors produced by model.
func Connect(ctx context.Context, url, model string, opts ...Option) (*Redis, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return New(client, model, opts...), nil
}

// New wraps an existing client.
func New(client *redis.Client, model string, opts ...Option) *Redis {
	r := &Redis{
		client: client,
		model:  model,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		logger: slog.Default().With("component", "query-cache"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the Redis key for query.
func (r *Redis) Key(query string) string {
	return r.prefix + r.model + ":" + digest(query)
}

// Get returns the cached vector for query.
func (r *Redis) Get(ctx context.Context, query string) ([]float32, bool, error) {
	data, err := r.client.Get(ctx, r.Key(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading cached embedding: %w", err)
	}

	vector, err := storage.UnmarshalVector(data)
	if err != nil {
		r.logger.Warn("dropping undecodable cache entry", "key", r.Key(query), "err", err)
		r.client.Del(ctx, r.Key(query))
		return nil, false, nil
	}
	return vector, true, nil
}

// Set stores vector for query.
func (r *Redis) Set(ctx context.Context, query string, vector []float32) error {
	if err := r.client.Set(ctx, r.Key(query), storage.MarshalVector(vector), r.ttl).Err(); err != nil {
		return fmt.Errorf("error caching embedding: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func digest(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
