// Package storage defines the key/value blob contract cache documents are
// persisted through, mirroring an extension-style storage area.
package storage

import (
	"context"
	"errors"
)

// ErrNoKey is returned by Get when the key has never been set.
var ErrNoKey = errors.New("storage: key not found")

// Area is a minimal key/value blob store. Values are opaque byte slices;
// a whole cache document travels through one key.
type Area interface {
	// Get returns the value stored under key, or ErrNoKey.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
