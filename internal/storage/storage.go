// Package storage abstracts where cached price data and scan documents
// live. Backends cover the local filesystem and S3-compatible services.
package storage

import (
	"context"
	"fmt"

	"github.com/newthinker/scout/internal/config"
)

// Store defines the interface for document storage backends
type Store interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// New builds a Store from a backend configuration
func New(cfg config.Backend) (Store, error) {
	switch cfg.Type {
	case "localfs", "":
		return NewLocalFS(cfg.Dir)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
