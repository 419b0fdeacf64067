package ports

import (
	"context"

	"github.com/convreg/convreg/internal/domain"
)

// Handle represents a single dataset registration. Release revokes the
// registration and is safe to call any number of times, including
// after the dataset was independently removed.
type Handle interface {
	// ID returns the unique identifier of this registration.
	ID() string

	// Release revokes the registration. Idempotent.
	Release()
}

// DatasetStore holds published datasets keyed by (URL, mime type).
// The store owns identity semantics: Contains defines what counts as
// a duplicate, and Publish after a Contains check is the only defense
// against duplicate registrations.
type DatasetStore interface {
	// Contains reports whether an equivalent dataset is registered.
	Contains(ctx context.Context, dataset domain.Dataset) (bool, error)

	// Publish registers a dataset and returns a releasable handle.
	Publish(ctx context.Context, dataset domain.Dataset) (Handle, error)

	// FilterByURL returns the datasets currently registered for a URL.
	FilterByURL(ctx context.Context, url string) ([]domain.Dataset, error)

	// MimeTypesForURL returns the mime types currently registered for
	// a URL. Empty for unknown URLs.
	MimeTypesForURL(ctx context.Context, url string) ([]string, error)
}
