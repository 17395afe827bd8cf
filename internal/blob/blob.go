// Package blob provides the injected blob-store capability used for profile
// photos. Callers hold a Store; where the bytes live is the implementation's
// business, so there is no process-wide upload directory.
package blob

import (
	"context"
	"io"
)

// Store persists opaque blobs and hands back references. References are
// stable strings suitable for storing on an identity record.
type Store interface {
	// Save writes the blob under a reference derived from name. The
	// returned ref is what callers persist and later pass to Resolve.
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	// Delete removes a blob. Deleting an unknown ref is not an error.
	Delete(ctx context.Context, ref string) error

	// Resolve translates a ref into a local filesystem path for serving.
	Resolve(ctx context.Context, ref string) (string, error)
}
