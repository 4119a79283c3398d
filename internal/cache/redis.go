package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xtding233/reroll-odds/internal/odds"
)

// Redis keeps distributions as JSON arrays.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (odds.Distribution, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	d, err := decode(b)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return d, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, d odds.Distribution) error {
	b, err := json.Marshal([]float64(d))
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, b, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func decode(b []byte) (odds.Distribution, error) {
	var xs []float64
	if err := json.Unmarshal(b, &xs); err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, errors.New("empty distribution")
	}
	return odds.Distribution(xs), nil
}
