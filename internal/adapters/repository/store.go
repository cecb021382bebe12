// Package repository holds the in-memory twin store.
package repository

import (
	"context"

	"github.com/okian/twin/internal/domain/twin"
)

// Store provides access to twins by ID.
type Store interface {
	// Create adds t. Returns ErrAlreadyExists if the ID is taken.
	Create(ctx context.Context, t *twin.Twin) error

	// Get returns a snapshot of the twin that is safe to read while it keeps
	// changing. Returns ErrNotFound if the twin is unknown.
	Get(ctx context.Context, id string) (*twin.Twin, error)

	// Update runs fn with exclusive access to the live twin. fn must leave the
	// twin unchanged when it returns an error.
	Update(ctx context.Context, id string, fn func(*twin.Twin) error) error

	// Delete removes the twin.
	Delete(ctx context.Context, id string) error

	// Count returns the number of twins.
	Count(ctx context.Context) int

	// IDs returns the twin IDs in ascending order.
	IDs(ctx context.Context) []string
}
