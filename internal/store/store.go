// Package store persists finished lobby runs: the character roster and the
// chosen map, keyed by run id.
package store

import (
	"context"
	"errors"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
)

var ErrNotFound = errors.New("run not found")

// Results is where finished stages go. Implementations may block; the lobby
// never calls them directly, only through a Writer.
type Results interface {
	SaveRoster(ctx context.Context, runID string, picks []engine.Pick) error
	SaveMap(ctx context.Context, runID string, choice int) error
}

// Reader is implemented by stores that can read runs back.
type Reader interface {
	Roster(ctx context.Context, runID string) ([]engine.Pick, error)
	Map(ctx context.Context, runID string) (int, error)
}

// Store is a Results that can also read its runs back.
type Store interface {
	Results
	Reader
}
