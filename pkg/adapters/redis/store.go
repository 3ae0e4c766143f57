// Package redis provides a SuspensionStore backed by Redis, for
// multi-replica deployments where any replica may receive the resume call.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/cascadehq/cascade/pkg/domain"
)

// claimScript atomically gets and deletes a token's record, so that exactly
// one caller wins it even across replicas.
const claimScript = `
	local val = redis.call("get", KEYS[1])
	if val then
		redis.call("del", KEYS[1])
		redis.call("zrem", KEYS[2], ARGV[1])
	end
	return val
`

// Store implements ports.SuspensionStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for suspension records. Zero means no
// expiration; pair it with the suspend package's watchdog.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for suspension records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "cascade:suspension:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(token string) string {
	return s.prefix + token
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the record to Redis with the configured TTL and adds the
// token to a ZSET index scored by expiry, for lazy pruning.
func (s *Store) Save(ctx context.Context, rec *domain.Suspension) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal suspension: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(rec.Token), data, s.ttl)

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01, effectively "never"
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: rec.Token,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the record without claiming it.
func (s *Store) Load(ctx context.Context, token string) (*domain.Suspension, error) {
	val, err := s.client.Get(ctx, s.key(token)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSuspensionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return unmarshal([]byte(val))
}

// Claim atomically retrieves and deletes the record via a Lua script.
func (s *Store) Claim(ctx context.Context, token string) (*domain.Suspension, error) {
	val, err := s.client.Eval(ctx, claimScript, []string{s.key(token), s.indexKey()}, token).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSuspensionNotFound
		}
		return nil, fmt.Errorf("failed to claim token: %w", err)
	}
	raw, ok := val.(string)
	if !ok {
		return nil, domain.ErrSuspensionNotFound
	}
	return unmarshal([]byte(raw))
}

// Delete removes the record and its index entry.
func (s *Store) Delete(ctx context.Context, token string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(token))
	pipe.ZRem(ctx, s.indexKey(), token)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns tokens of pending suspensions, pruning expired index entries
// lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired suspensions: %w", err)
	}

	tokens, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list suspensions: %w", err)
	}
	return tokens, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func unmarshal(data []byte) (*domain.Suspension, error) {
	var rec domain.Suspension
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suspension: %w", err)
	}
	return &rec, nil
}
