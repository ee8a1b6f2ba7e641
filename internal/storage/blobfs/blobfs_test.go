package blobfs

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/cezi/internal/storage"
)

func TestUploadAndOpen(t *testing.T) {
	store, err := New(t.TempDir(), "/blobs/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("avatar bytes")
	if err := store.Upload(context.Background(), "avatars", "owner-1/pic.png", content); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	got, err := store.Open("avatars", "owner-1/pic.png")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("Open() = %q, want %q", got, content)
	}
}

func TestPublicURL(t *testing.T) {
	store, err := New(t.TempDir(), "/blobs/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := store.PublicURL("avatars", "owner-1/pic.png")
	want := "/blobs/avatars/owner-1/pic.png"
	if got != want {
		t.Fatalf("PublicURL() = %q, want %q", got, want)
	}
}

func TestOpenMissing(t *testing.T) {
	store, err := New(t.TempDir(), "/blobs")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = store.Open("avatars", "ghost.png")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Open() error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestUploadRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir(), "/blobs")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.Upload(context.Background(), "avatars", "../../etc/passwd", []byte("x")); err == nil {
		t.Fatal("Upload() expected error for traversal key")
	}
}

func TestNewRequiresRoot(t *testing.T) {
	if _, err := New("  ", "/blobs"); err == nil {
		t.Fatal("New() expected error for blank root")
	}
}
