// Package localfs stores artifacts on the local filesystem, for development and
// single-node deployments.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/promptreel/server/internal/port/outbound"
)

// ArtifactStore keeps objects under a root directory.
type ArtifactStore struct {
	root string
}

// NewArtifactStore creates the root directory if needed.
func NewArtifactStore(root string) (*ArtifactStore, error) {
	if root == "" {
		return nil, errors.New("local storage directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &ArtifactStore{root: root}, nil
}

// path resolves key below the root, rejecting keys that escape it.
func (a *ArtifactStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	p := filepath.Join(a.root, clean)
	if !strings.HasPrefix(p, filepath.Clean(a.root)+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return p, nil
}

// Put writes the object atomically.
func (a *ArtifactStore) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename object: %w", err)
	}
	return nil
}

// Open opens the object for reading.
func (a *ArtifactStore) Open(_ context.Context, key string) (*outbound.Object, error) {
	p, err := a.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, outbound.ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat object: %w", err)
	}

	contentType := "application/octet-stream"
	if strings.EqualFold(filepath.Ext(p), ".mp4") {
		contentType = "video/mp4"
	}

	return &outbound.Object{Body: f, Size: info.Size(), ContentType: contentType}, nil
}

// PresignedURL is not supported; content is streamed by the API instead.
func (a *ArtifactStore) PresignedURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", outbound.ErrPresignUnsupported
}

// Compile-time check
var _ outbound.StoragePort = (*ArtifactStore)(nil)
