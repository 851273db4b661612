// Package blob stores uploaded room images and resolves their public URLs.
package blob

import (
	"context"
	"io"
)

// Storage is a flat key/value object store.
type Storage interface {
	// Put writes the object under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader) error
	// URL returns the public download URL of key.
	URL(ctx context.Context, key string) (string, error)
}

// ImageKey returns the object key for an uploaded image. Two uploads with the
// same file name share a key.
func ImageKey(name string) string {
	return "images/" + name
}
