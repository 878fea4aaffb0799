// Package storage provides object storage for document payloads behind a
// small interface, with an S3-compatible implementation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrorKind classifies object storage failures.
type ErrorKind string

const (
	KindWriteFailed ErrorKind = "write_failed"
	KindNotFound    ErrorKind = "not_found"
	KindNetwork     ErrorKind = "network"
)

// Error is a typed object-storage error carrying the failed key.
type Error struct {
	Kind ErrorKind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %s: %v", e.Kind, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a storage Error of kind not_found.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindNotFound
}

// ObjectInfo describes one stored object, as returned by List.
type ObjectInfo struct {
	Key          string
	LastModified time.Time
}

// ObjectStore is the object-storage contract consumed by the document
// repository and the orphan sweep.
type ObjectStore interface {
	// Put writes the object bytes under key.
	Put(ctx context.Context, key string, body io.Reader, contentType string) error

	// ResolveURL returns a retrievable URL for the object at key.
	ResolveURL(ctx context.Context, key string) (string, error)

	// Remove deletes the object at key. A missing object yields an
	// Error of kind not_found.
	Remove(ctx context.Context, key string) error

	// List enumerates objects under prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
