package ports

import (
	"context"

	"github.com/aretw0/circuitry/pkg/domain"
)

// DocumentStore defines the interface for persisting circuit documents.
// Workspaces autosave through it and the custom component library lives in it.
type DocumentStore interface {
	// Save persists the document under key, replacing any previous version.
	Save(ctx context.Context, key string, doc *domain.Document) error

	// Load retrieves the document stored under key.
	// Returns domain.ErrNotFound if the key does not exist.
	Load(ctx context.Context, key string) (*domain.Document, error)

	// Delete removes the document stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every stored key.
	List(ctx context.Context) ([]string, error)
}

// DocumentSource defines read-only access to named documents.
type DocumentSource interface {
	// Get returns the named document or domain.ErrNotFound.
	Get(ctx context.Context, name string) (*domain.Document, error)

	// Names lists the available documents.
	Names(ctx context.Context) ([]string, error)
}
