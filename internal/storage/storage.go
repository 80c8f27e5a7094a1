// Package storage provides the durable key-value store that holds client-side
// state: the shopping cart and the admin session flag.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// ErrCorrupt is returned by Get when the stored document cannot be decoded.
var ErrCorrupt = errors.New("corrupt state document")

// KV is a small durable key-value store. Values never expire.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the store described by uri:
//
//	memory://              in-process map, lost on exit
//	redis://host:port/db   Redis
//	anything else          path of a JSON file on disk
func Open(ctx context.Context, uri string) (KV, error) {
	switch {
	case uri == "memory://" || uri == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://"):
		return NewRedisFromURL(ctx, uri)
	case strings.TrimSpace(uri) == "":
		return nil, fmt.Errorf("storage location is empty")
	default:
		return NewFile(uri)
	}
}
