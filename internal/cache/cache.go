// Package cache persists resolved channel identifiers keyed by the raw
// reference they were resolved from, so repeated lookups of the same
// reference avoid a network round trip.
package cache

import (
	"context"
	"time"

	"ytrss/internal/model"
)

// Entry is one persisted resolution.
type Entry struct {
	Reference  string
	ID         model.ResolvedID
	ResolvedAt time.Time
}

// Cache maps normalized references to resolved identifiers. Keys are passed
// through model.NormalizeReference on every call, so equivalent URL spellings
// share a single entry.
type Cache interface {
	// Lookup returns the identifier stored for a reference. The boolean is
	// false on a miss, including when a stored entry is older than the
	// configured TTL.
	Lookup(ctx context.Context, reference string) (model.ResolvedID, bool, error)
	// Store records a resolution, replacing any previous entry for the key.
	Store(ctx context.Context, reference string, id model.ResolvedID) error
	// Remove deletes the entry for a reference, if present.
	Remove(ctx context.Context, reference string) error
	// List returns all entries ordered by reference.
	List(ctx context.Context) ([]Entry, error)
	// Clear removes every entry. Clearing an empty cache is not an error.
	Clear(ctx context.Context) error
	Close() error
}

// Nop is a Cache that stores nothing and always misses. It backs the
// cache-disabled code path.
type Nop struct{}

// Lookup always reports a miss.
func (Nop) Lookup(context.Context, string) (model.ResolvedID, bool, error) {
	return model.ResolvedID{}, false, nil
}

// Store discards the entry.
func (Nop) Store(context.Context, string, model.ResolvedID) error { return nil }

// Remove does nothing.
func (Nop) Remove(context.Context, string) error { return nil }

// List returns no entries.
func (Nop) List(context.Context) ([]Entry, error) { return nil, nil }

// Clear does nothing.
func (Nop) Clear(context.Context) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
