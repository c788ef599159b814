// Package storage defines the persistence port for the commerce state engine.
//
// State lives in opaque keyed records (JSON blobs) inside a durable local
// store, mirroring how a browser keeps the same data in localStorage. Every
// write is a wholesale overwrite of its record; concurrent writers follow a
// last-writer-wins protocol with no conflict resolution.
package storage

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get when no record exists under the given key.
var ErrNotFound = errors.New("record not found")

// KV is the keyed record store the domain stores persist through.
type KV interface {
	// Get returns the raw record stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the record under key wholesale and bumps its revision.
	// A failed Set must leave the previous record intact.
	Set(ctx context.Context, key string, value []byte) error

	// Revisions returns the current revision of every stored record. Another
	// process writing through the same store bumps revisions, which is how
	// cross-context changes are detected.
	Revisions(ctx context.Context) (map[string]int64, error)
}

// WriteError indicates a durable write did not complete. The action that
// triggered it is not considered applied.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write record %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
