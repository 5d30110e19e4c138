package store

import (
	"context"
	"errors"
)

// Store is a key/value byte-string storage abstraction holding the
// serialized cart snapshot. Implementations report real errors; the
// sync controller applies the best-effort policy (read failure means
// absent, write failure is logged and swallowed). Persistence is a
// durability optimization, never a consistency source.
//
// A storage key is owned by one engine instance. Concurrent instances
// sharing a key are not mediated: last writer wins.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

var ErrNotFound = errors.New("snapshot not found")
