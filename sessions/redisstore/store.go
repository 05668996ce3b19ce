package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/counsellor-web/sessions"
	"github.com/redis/go-redis/v9"
)

var _ sessions.Repo = (*Store)(nil)

// Store is a Redis-backed sessions.Repo for deployments running several
// web front instances behind one load balancer.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiry applied on every save. Zero stores without expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dial parses a redis:// URL, connects and pings.
func Dial(ctx context.Context, url string, opts ...Option) (*Store, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, opts...), nil
}

// Load returns the state stored under key. Expired keys are missing.
func (s *Store) Load(ctx context.Context, key string) (sessions.State, bool, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return sessions.State{}, false, nil
	}
	if err != nil {
		return sessions.State{}, false, fmt.Errorf("get session state: %w", err)
	}
	st, err := sessions.Unmarshal(payload)
	if err != nil {
		return sessions.State{}, false, err
	}
	return st, true, nil
}

// Save replaces the state under key, refreshing its TTL.
func (s *Store) Save(ctx context.Context, key string, state sessions.State) error {
	payload, err := sessions.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session state: %w", err)
	}
	return nil
}

// Delete removes the state under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete session state: %w", err)
	}
	return nil
}

// Health checks if the Redis connection is healthy.
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
