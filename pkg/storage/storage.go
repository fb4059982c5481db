// Package storage provides key-addressed file storage with local and GCS
// implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// FileInfo contains metadata about a stored object
type FileInfo struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Storage defines the interface for object storage operations. Keys use
// forward slashes regardless of backend.
type Storage interface {
	// Put stores an object under key, replacing any existing one
	Put(ctx context.Context, key string, contentType string, r io.Reader) (*FileInfo, error)

	// Get opens an object for reading
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Stat returns metadata without downloading
	Stat(ctx context.Context, key string) (*FileInfo, error)

	// List returns metadata for all objects under a prefix
	List(ctx context.Context, prefix string) ([]*FileInfo, error)

	// Delete removes an object. Deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases backend resources
	Close() error
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeGCS   StorageType = "gcs"
)

// Config holds storage configuration
type Config struct {
	Type StorageType `yaml:"type" env:"STORAGE_TYPE" envDefault:"local"`

	// Local storage config
	LocalPath string `yaml:"local_path" env:"STORAGE_LOCAL_PATH" envDefault:"./uploads"`

	// GCS storage config. Credentials come from Application Default
	// Credentials.
	GCSBucket string `yaml:"gcs_bucket" env:"STORAGE_GCS_BUCKET"`
}

// New creates a new Storage implementation based on configuration
func New(ctx context.Context, cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeGCS:
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("gcs bucket is required")
		}
		return NewGCSStorage(ctx, cfg.GCSBucket)
	case StorageTypeLocal:
		fallthrough
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// SanitizeFilename removes unsafe characters from filenames before they
// become part of an object key
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
