// Package objstore stores uploaded images (category, subcategory, and event
// artwork) either on local disk or in an S3-compatible bucket.
package objstore

import (
	"context"
	"io"
)

// Store persists uploaded objects and returns the public URL they are
// served under.
type Store interface {
	// Put writes the object and returns its public URL.
	// PRE: key is a relative path like "uploads/abc.png"
	// POST: Object is retrievable at the returned URL
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}
