// Package store provides the track catalog persistence port and its backends.
package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/mtak/playdeck/internal/domain/track"
)

var (
	// ErrBlobsUnsupported is returned by backends that cannot hold raw audio data.
	ErrBlobsUnsupported = errors.New("store backend does not support audio blobs")
)

// Record is a persisted catalog entry: the track metadata plus, optionally,
// the raw audio bytes it was imported from.
type Record struct {
	Track track.Track
	Blob  []byte
}

// Store is the catalog persistence port. Implementations are keyed by track
// id and must be idempotent: Put with an existing id fully replaces the prior
// record, Delete on a missing id is a no-op. Any I/O failure surfaces as an
// error; callers must not mutate in-memory player state until the operation
// acknowledges.
//
// The settings operations hold the preference snapshot and other small
// key-value entries outside the track catalog.
//
// Lifecycle: open once through New, reuse the handle, Close on shutdown.
type Store interface {
	// GetAll returns every persisted track record.
	GetAll(ctx context.Context) ([]Record, error)
	// Put persists a track, replacing any record with the same id.
	Put(ctx context.Context, t track.Track, blob []byte) error
	// Delete removes the record with the given id. Missing ids are a no-op.
	Delete(ctx context.Context, id string) error

	// GetSetting returns the value stored under key; ok is false when absent.
	GetSetting(ctx context.Context, key string) (value []byte, ok bool, err error)
	// PutSetting stores value under key, replacing any prior value.
	PutSetting(ctx context.Context, key string, value []byte) error

	// Close releases the underlying handle.
	Close() error
}
