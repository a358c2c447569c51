package storage

import (
	"context"
	"io"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Options selects and configures a medium for Open.
type Options struct {
	Driver string
	DSN    string
	Redis  RedisConfig
}

// Store is a medium that may hold resources. Memory has nothing to release.
type Store interface {
	KV
	io.Closer
}

type nopCloser struct{ *Memory }

func (nopCloser) Close() error { return nil }

// Open builds the medium named by opts.Driver. An empty driver means memory.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverMemory:
		return nopCloser{NewMemory()}, nil
	case DriverSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = "file:joalistay.db?cache=shared"
		}
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverRedis:
		r, err := OpenRedis(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, errors.New("unknown storage driver", errors.CategoryBadInput).
			WithMetadata(map[string]any{"driver": opts.Driver})
	}
}
