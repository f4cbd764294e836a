// Package storage persists uploaded image files to a server-local directory.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore writes uploaded files under a base directory.
// Stored paths are relative to the directory's /uploads mount.
type FileStore struct {
	dir      string
	logger   *slog.Logger
	timeFunc func() time.Time // injectable for testing
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &FileStore{
		dir:      dir,
		logger:   logger,
		timeFunc: time.Now,
	}, nil
}

// Dir returns the base directory files are stored under.
func (s *FileStore) Dir() string {
	return s.dir
}

// StoredName builds the on-disk name for an uploaded file: a UTC timestamp
// prefix with colons replaced by dashes for filesystem portability, followed
// by the client-supplied filename stripped of any path components.
func (s *FileStore) StoredName(original string) string {
	prefix := strings.ReplaceAll(s.timeFunc().UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	return prefix + filepath.Base(original)
}

// Save persists a single uploaded file and returns its stored relative path.
func (s *FileStore) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	name := s.StoredName(fh.Filename)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create stored file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write stored file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(s.dir, name)), nil
}

// SaveAll persists every uploaded file, returning the stored paths.
// A per-file failure is logged and skipped, never fatal to the request.
func (s *FileStore) SaveAll(files []*multipart.FileHeader) []string {
	stored := make([]string, 0, len(files))
	for _, fh := range files {
		path, err := s.Save(fh)
		if err != nil {
			s.logger.Error("failed to store uploaded file",
				slog.String("filename", fh.Filename),
				slog.String("error", err.Error()),
			)
			continue
		}
		stored = append(stored, path)
	}
	return stored
}
