package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// MediaStore keeps uploaded video and subtitle files as opaque blobs.
// Stored paths are slash-separated and relative to the media root.
type MediaStore interface {
	Save(dir, filename string, r io.Reader) (string, error)
	Remove(relPath string) error
	Root() string
}

type localMediaStore struct {
	root string
}

// NewLocalMediaStore stores files under root, creating it if needed.
func NewLocalMediaStore(root string) (MediaStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &localMediaStore{root: root}, nil
}

func (s *localMediaStore) Root() string { return s.root }

// Save writes r to <dir>/<uuid>-<sanitized filename> and returns that path.
func (s *localMediaStore) Save(dir, filename string, r io.Reader) (string, error) {
	rel := path.Join(cleanDir(dir), uuid.NewString()+"-"+SanitizeFilename(filename))
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close media file: %w", err)
	}
	return rel, nil
}

func (s *localMediaStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	clean := path.Clean("/" + relPath)
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SanitizeFilename keeps the base name and replaces anything unusual.
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	if len(base) > 100 {
		ext := path.Ext(base)
		if len(ext) > 10 {
			ext = ""
		}
		base = base[:100-len(ext)] + ext
	}
	return base
}

func cleanDir(dir string) string {
	return strings.TrimPrefix(path.Clean("/"+dir), "/")
}
