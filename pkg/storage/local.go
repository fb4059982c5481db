package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects as plain files under a base directory, with
// keys mapped to relative paths.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage ensures the base directory exists and returns the store.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// resolve maps an object key onto a path under basePath. Keys that escape
// the base directory are rejected.
func (s *LocalStorage) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

// Put stores an object under key, replacing any existing one
func (s *LocalStorage) Put(ctx context.Context, key string, contentType string, r io.Reader) (*FileInfo, error) {
	filePath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &FileInfo{
		Key:         key,
		Size:        size,
		ContentType: contentTypeFor(key, contentType),
		UpdatedAt:   info.ModTime(),
	}, nil
}

// Get opens an object for reading
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Stat returns metadata without downloading
func (s *LocalStorage) Stat(ctx context.Context, key string) (*FileInfo, error) {
	filePath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &FileInfo{
		Key:         key,
		Size:        info.Size(),
		ContentType: contentTypeFor(key, ""),
		UpdatedAt:   info.ModTime(),
	}, nil
}

// List returns metadata for all objects under a prefix
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]*FileInfo, error) {
	files := []*FileInfo{}

	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, &FileInfo{
			Key:         key,
			Size:        info.Size(),
			ContentType: contentTypeFor(key, ""),
			UpdatedAt:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	return files, nil
}

// Delete removes an object. Deleting a missing key is not an error
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	filePath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Close releases backend resources
func (s *LocalStorage) Close() error {
	return nil
}

func contentTypeFor(key, declared string) string {
	if declared != "" {
		return declared
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var _ Storage = (*LocalStorage)(nil)
