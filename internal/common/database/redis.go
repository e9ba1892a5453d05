package database

import (
	"context"
	"fmt"
	"time"

	"parkingspace-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	Client redis.UniversalClient
}

// ConnectRedis returns a client for the offer guard. The guard only issues
// short SET NX and compare-and-delete calls, so the pool stays small.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{cfg.Address},
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	r := &Redis{Client: client}
	if err := r.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return r, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := withPingTimeout(ctx)
	defer cancel()
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.Client.Close()
}
