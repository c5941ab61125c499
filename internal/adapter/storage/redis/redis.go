package redis

import (
	"context"
	"fmt"

	"handle-ledger/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// clientOptions maps the config onto go-redis options. Zero values keep the
// library defaults.
func clientOptions(cfg config.RedisConfig) *goredis.Options {
	return &goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	}
}

// NewClient connects the idempotency cache backend. The client is closed
// again if the first ping fails.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(clientOptions(cfg))

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	opts := client.Options()
	log.Info().
		Str("addr", opts.Addr).
		Int("db", opts.DB).
		Int("pool_size", opts.PoolSize).
		Dur("dial_timeout", opts.DialTimeout).
		Msg("idempotency cache connected")

	return client, nil
}
