// Package redisstore persists credentials in Redis so several processes can share one login.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/desertthunder/spotx/internal/shared"
)

const (
	keyPrefix  = "spotx:"
	defaultTTL = 30 * 24 * time.Hour
)

// Persister stores credential values under "spotx:<profile>:<key>".
type Persister struct {
	client  redis.UniversalClient
	profile string
	ttl     time.Duration
}

// New returns a Persister over an existing client. A non-positive ttl falls back to 30 days.
func New(client redis.UniversalClient, profile string, ttl time.Duration) *Persister {
	if profile == "" {
		profile = "default"
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Persister{client: client, profile: profile, ttl: ttl}
}

// Connect dials the server described by cfg and verifies it with PING.
func Connect(ctx context.Context, cfg shared.RedisConfig) (*redis.Client, error) {
	addr := cfg.Address
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping %s: %v", shared.ErrStorage, addr, err)
	}

	return client, nil
}

func (p *Persister) key(k string) string {
	return keyPrefix + p.profile + ":" + k
}

func (p *Persister) Save(ctx context.Context, key, value string) error {
	if err := p.client.Set(ctx, p.key(key), value, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis: save %s: %w", key, err)
	}
	return nil
}

func (p *Persister) Load(ctx context.Context, key string) (string, bool, error) {
	value, err := p.client.Get(ctx, p.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: load %s: %w", key, err)
	}
	return value, true, nil
}

func (p *Persister) Delete(ctx context.Context, key string) error {
	if err := p.client.Del(ctx, p.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: delete %s: %w", key, err)
	}
	return nil
}
