// Package uploads implements the file storage contract: accept a multipart
// upload, persist it under the uploads directory, and return an opaque
// reference path served statically under /uploads.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"mealconnect-api/apperr"

	"github.com/google/uuid"
)

const maxFileBytes = 5 << 20 // 5 MiB

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type Store struct {
	dir string
}

// New creates the uploads directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the on-disk directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// Save persists fh to disk under a random name and returns the public
// reference path ("/uploads/<name>").
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > maxFileBytes {
		return "", apperr.Validationf("file too large (max %d bytes)", maxFileBytes)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", apperr.Validationf("unsupported file type %q", ext)
	}

	src, err := fh.Open()
	if err != nil {
		return "", apperr.Internal(err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", apperr.Internal(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxFileBytes)); err != nil {
		return "", apperr.Internal(err)
	}
	return "/uploads/" + name, nil
}
