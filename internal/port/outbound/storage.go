package outbound

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound indicates the object was not found.
	ErrObjectNotFound = errors.New("object not found")

	// ErrPresignUnsupported is returned by backends that cannot hand out direct URLs.
	ErrPresignUnsupported = errors.New("presigned urls not supported")
)

// Object is an opened stored object. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// StoragePort defines artifact storage operations.
type StoragePort interface {
	// Put stores an object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Open retrieves an object from storage.
	Open(ctx context.Context, key string) (*Object, error)

	// PresignedURL generates a URL granting temporary read access.
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
