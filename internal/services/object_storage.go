package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidObjectPath is returned for paths that escape the storage root.
var ErrInvalidObjectPath = errors.New("storage: invalid object path")

// ObjectStorage stores binary objects and hands back a public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// LocalObjectStorage writes objects below root and serves them at
// baseURL + "/uploads/" + objectPath.
type LocalObjectStorage struct {
	root    string
	baseURL string
}

// UploadsPrefix is the URL prefix local objects are served under.
const UploadsPrefix = "/uploads"

// NewLocalObjectStorage creates root if needed.
func NewLocalObjectStorage(root, baseURL string) (*LocalObjectStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalObjectStorage{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalObjectStorage) resolve(objectPath string) (string, error) {
	clean := path.Clean("/" + objectPath)
	if clean == "/" || strings.Contains(objectPath, "..") {
		return "", ErrInvalidObjectPath
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Upload writes data to objectPath, replacing an existing object.
func (s *LocalObjectStorage) Upload(ctx context.Context, objectPath string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := s.resolve(objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return s.PublicURL(objectPath), nil
}

// Delete removes objectPath; a missing object is not an error.
func (s *LocalObjectStorage) Delete(_ context.Context, objectPath string) error {
	target, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PublicURL returns the URL objectPath is served at.
func (s *LocalObjectStorage) PublicURL(objectPath string) string {
	return s.baseURL + UploadsPrefix + "/" + strings.TrimPrefix(objectPath, "/")
}

// ObjectPathFromURL reverses PublicURL. ok is false for foreign URLs.
func (s *LocalObjectStorage) ObjectPathFromURL(url string) (string, bool) {
	prefix := s.baseURL + UploadsPrefix + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ProductImagePath builds products/<unix-ms>-<sanitized file name>.
func ProductImagePath(fileName string, now time.Time) string {
	name := unsafeNameChars.ReplaceAllString(filepath.Base(fileName), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		name = "image"
	}
	return fmt.Sprintf("products/%d-%s", now.UnixMilli(), name)
}
