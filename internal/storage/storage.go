package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned for object keys that escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// Storage stores image blobs and hands back a URL the client can render.
type Storage interface {
	// StoreFromBytes stores data under key and returns its public URL
	StoreFromBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Delete removes the object behind a URL returned by StoreFromBytes.
	// Deleting a missing object is not an error. A URL this storage did not
	// hand out is ErrInvalidKey.
	Delete(ctx context.Context, url string) error
}

// ObjectKey builds a unique key of the form <profileID>/<folder>/<uuid><ext>.
func ObjectKey(profileID, folder, contentType string) string {
	return path.Join(profileID, folder, uuid.New().String()+extension(contentType))
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// keyFromURL returns the object key of a URL that starts with prefix.
func keyFromURL(url, prefix string) (string, error) {
	url, _, _ = strings.Cut(url, "?")
	key, ok := strings.CutPrefix(url, prefix)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a stored object", ErrInvalidKey, url)
	}
	return cleanKey(key)
}

// LocalStorage keeps blobs on disk. Used in demo mode and tests.
type LocalStorage struct {
	dir     string
	baseURL string
	maxSize int64
}

func NewLocalStorage(dir, baseURL string, maxSize int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize}, nil
}

// Dir is the directory served under the public base URL.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) StoreFromBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", fmt.Errorf("file exceeds %d bytes", s.maxSize)
	}

	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(url, s.baseURL+"/")
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
