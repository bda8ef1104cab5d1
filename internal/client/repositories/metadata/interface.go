// Package metadata is the local key/value store backing the session store.
// Values are opaque blobs; callers seal anything sensitive before writing.
package metadata

import "context"

// Keys used by the session store.
const (
	KeySessionBlob  = "session.blob"
	KeySessionNonce = "session.nonce"
	KeySessionSalt  = "session.salt"
)

// Repository reads and writes metadata entries.
type Repository interface {
	// Get returns common.ErrorNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMany returns the entries present among keys; missing keys are
	// absent from the map.
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
