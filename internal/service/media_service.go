package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors for photo uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed image MIME types.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

const photoDir = "students"

// LocalPhotoStorage keeps student photos on disk under root. The HTTP layer
// serves root at urlPrefix.
type LocalPhotoStorage struct {
	root      string
	urlPrefix string
	maxBytes  int64
}

// NewLocalPhotoStorage creates a LocalPhotoStorage.
func NewLocalPhotoStorage(root, urlPrefix string, maxBytes int64) *LocalPhotoStorage {
	return &LocalPhotoStorage{
		root:      root,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}
}

// Save writes the upload to students/<uuid><ext> and returns that relative path.
func (s *LocalPhotoStorage) Save(upload *Upload) (string, error) {
	ext, ok := allowedMIMETypes[upload.ContentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, upload.ContentType, strings.Join(allowedTypes(), ", "))
	}

	if upload.Size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, upload.Size, s.maxBytes)
	}

	dir := filepath.Join(s.root, photoDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	// Size on the header can lie; cap what is actually copied.
	n, err := io.Copy(dst, io.LimitReader(upload.Reader, s.maxBytes+1))
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if n > s.maxBytes {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.maxBytes)
	}

	return photoDir + "/" + name, nil
}

// Delete removes a stored photo. Missing files and paths outside root are
// ignored.
func (s *LocalPhotoStorage) Delete(path string) error {
	full, ok := s.resolve(path)
	if !ok {
		return nil
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}

// URL maps a stored path to its public URL. Absolute URLs pass through.
func (s *LocalPhotoStorage) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.urlPrefix + "/" + strings.TrimPrefix(path, "/")
}

func (s *LocalPhotoStorage) resolve(path string) (string, bool) {
	if path == "" || strings.Contains(path, "://") {
		return "", false
	}
	clean := filepath.Clean("/" + path)
	full := filepath.Join(s.root, clean)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return full, true
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
