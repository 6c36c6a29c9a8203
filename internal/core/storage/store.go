package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no slot exists under the key.
var ErrNotFound = errors.New("slot not found")

// State is one stored slot value. TS is the zero time when the slot was
// written without a timestamp.
type State struct {
	Key   string    `json:"key"`
	Value any       `json:"value"`
	TS    time.Time `json:"ts"`
}

// Store is the key/value accessor the engine reads and writes accumulator
// slots through. Keys are hierarchical dotted strings.
type Store interface {
	// Get returns the slot under key, or ErrNotFound.
	Get(ctx context.Context, key string) (State, error)

	// Set creates or overwrites the slot under key.
	Set(ctx context.Context, key string, value any, ts time.Time) error

	// Delete removes the slot. Deleting a missing slot is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every slot whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]State, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
