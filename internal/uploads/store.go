// Package uploads stores media files referenced by photo and video sections.
// Files are written under a single directory with generated names; the
// returned path is what the section's media_path field stores.
package uploads

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadSize caps a single media file at 50 MiB
const MaxUploadSize = 50 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
	".webm": true,
	".mov":  true,
}

// Store writes uploads to a local directory
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save stores the file content and returns the storage path, in the form
// "uploads/<millis>-<uuid>.<ext>". The original filename only contributes
// its extension.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.New().String(), ext)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if written > MaxUploadSize {
		os.Remove(dst.Name())
		return "", fmt.Errorf("file exceeds maximum size of %d bytes", MaxUploadSize)
	}

	return "uploads/" + name, nil
}

// Open returns the stored file for a path previously returned by Save
func (s *Store) Open(storagePath string) (*os.File, error) {
	name := strings.TrimPrefix(storagePath, "uploads/")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid storage path %q", storagePath)
	}
	return os.Open(filepath.Join(s.dir, name))
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(storagePath string) error {
	name := strings.TrimPrefix(storagePath, "uploads/")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid storage path %q", storagePath)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ContentType guesses the MIME type from a storage path's extension
func ContentType(storagePath string) string {
	ct := mime.TypeByExtension(filepath.Ext(storagePath))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
