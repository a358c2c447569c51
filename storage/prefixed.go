package storage

import (
	"context"
	"strings"
)

// KV is the medium every store in this package implements.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Prefixed scopes a shared store to one namespace, so several sessions can
// live in the same medium without seeing each other's keys.
type Prefixed struct {
	base   KV
	prefix string
}

// NewPrefixed wraps base. Keys are stored as "<prefix>:<key>".
func NewPrefixed(base KV, prefix string) *Prefixed {
	prefix = strings.TrimSuffix(prefix, ":")
	return &Prefixed{base: base, prefix: prefix}
}

func (p *Prefixed) Prefix() string {
	return p.prefix
}

func (p *Prefixed) key(k string) string {
	if p.prefix == "" {
		return k
	}
	return p.prefix + ":" + k
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.base.Get(ctx, p.key(key))
}

func (p *Prefixed) Set(ctx context.Context, key, value string) error {
	return p.base.Set(ctx, p.key(key), value)
}

func (p *Prefixed) Delete(ctx context.Context, keys ...string) error {
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = p.key(k)
	}
	return p.base.Delete(ctx, scoped...)
}
