package storage

import "context"

// BlobStore persists opaque binary objects and issues public URLs for them.
//
// Uploads are write-once: callers derive a fresh key per upload and never
// overwrite an existing object.
type BlobStore interface {
	Upload(ctx context.Context, bucket, key string, content []byte) error
	PublicURL(bucket, key string) string
}
