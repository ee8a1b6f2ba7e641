// Package blobfs stores uploaded blobs on the local filesystem and serves
// them back under a public URL prefix.
package blobfs

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/louisbranch/cezi/internal/storage"
)

// Store writes blobs under root/<bucket>/<key> and maps them to
// <publicBase>/<bucket>/<key> URLs.
type Store struct {
	root       string
	publicBase string
}

// New creates a filesystem blob store rooted at root. publicBase is the URL
// prefix the HTTP layer serves blobs from, for example "/blobs".
func New(root, publicBase string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("blob root is required")
	}
	cleanRoot := filepath.Clean(root)
	if err := os.MkdirAll(cleanRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{
		root:       cleanRoot,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Upload writes content to bucket/key, creating parent directories as needed.
// Keys are rejected when they escape the bucket directory.
func (s *Store) Upload(ctx context.Context, bucket, key string, content []byte) error {
	if s == nil {
		return fmt.Errorf("blob store is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.resolve(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

// PublicURL returns the URL the blob is served from after upload.
func (s *Store) PublicURL(bucket, key string) string {
	if s == nil {
		return ""
	}
	return s.publicBase + "/" + path.Join(bucket, key)
}

// Open reads one stored blob back. Missing blobs map to storage.ErrNotFound.
func (s *Store) Open(bucket, key string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not initialized")
	}
	target, err := s.resolve(bucket, key)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return content, nil
}

func (s *Store) resolve(bucket, key string) (string, error) {
	if strings.TrimSpace(bucket) == "" {
		return "", fmt.Errorf("bucket is required")
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("key is required")
	}

	relative := path.Clean(path.Join(bucket, key))
	if relative == "." || strings.HasPrefix(relative, "../") || path.IsAbs(relative) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(relative)), nil
}

var _ storage.BlobStore = (*Store)(nil)
