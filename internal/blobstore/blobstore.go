package blobstore

import (
	"context"
	"time"
)

// Object describes a stored blob.
type Object struct {
	Path        string
	URL         string
	ContentType string
	Size        int64
	Metadata    map[string]string
	CreatedAt   time.Time
}

// PutInput holds the parameters for storing a blob.
type PutInput struct {
	Path        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// ProgressFunc receives fractional transfer progress in [0,100].
// Implementations must report monotonically non-decreasing values.
type ProgressFunc func(fraction float64)

// Transfer is a resumable upload handle. Cancel is cooperative: it is
// guaranteed to take effect before the transfer completes, not instantly.
type Transfer interface {
	// Cancel requests cancellation. Safe to call more than once.
	Cancel()

	// Done is closed when the transfer finishes (success, failure, or cancel).
	Done() <-chan struct{}

	// Result returns the stored object, blocking until the transfer finishes.
	// A cancelled transfer returns pkg/errors.ErrCanceled.
	Result() (*Object, error)
}

// Store is the remote blob store capability.
type Store interface {
	// Put stores a blob in a single shot.
	Put(ctx context.Context, in PutInput) (*Object, error)

	// PutResumable starts a progress-reporting, cancellable upload.
	// onProgress may be nil.
	PutResumable(ctx context.Context, in PutInput, onProgress ProgressFunc) (Transfer, error)

	// PublicURL returns the public URL for a stored path.
	PublicURL(ctx context.Context, path string) (string, error)

	// Delete removes a blob. Deleting an absent path returns ErrNotFound.
	Delete(ctx context.Context, path string) error

	// List returns the objects directly under folder and the names of its
	// immediate subfolders.
	List(ctx context.Context, folder string) (items []Object, subfolders []string, err error)

	// Metadata returns the custom metadata of a stored path.
	Metadata(ctx context.Context, path string) (map[string]string, error)

	// UpdateMetadata merges the given metadata into the stored path's metadata.
	UpdateMetadata(ctx context.Context, path string, md map[string]string) error
}
