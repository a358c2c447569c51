package storage

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection options used by OpenRedis.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	Prefix       string
	TTL          time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.Prefix == "" {
		out.Prefix = "joalistay"
	}
	return out
}

// Redis stores session values as plain string keys, which lets several
// front end replicas share visitor sessions.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required", errors.CategoryBadInput)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.CategoryExternal, "redis ping failed").
			WithMetadata(map[string]any{"addr": cfg.Addr})
	}

	return NewRedis(rdb, cfg.Prefix).WithTTL(cfg.TTL), nil
}

// NewRedis wraps an existing client. Keys are stored as "<prefix>:<key>".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// WithTTL sets an expiration on every write. Zero keeps values forever.
func (r *Redis) WithTTL(ttl time.Duration) *Redis {
	r.ttl = ttl
	return r
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, errors.CategoryExternal, "redis get").
			WithMetadata(map[string]any{"key": key})
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "redis set").
			WithMetadata(map[string]any{"key": key})
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = r.key(k)
	}
	if err := r.client.Del(ctx, scoped...).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "redis del")
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
