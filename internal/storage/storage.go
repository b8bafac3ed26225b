// Package storage keeps uploaded media files on the local filesystem.
//
// Names handed to a Store are slash-separated paths relative to the media
// root, e.g. "uploads/recipe/0b6f...jpg". The same name is what the database
// stores and what URL turns into a public link under the media URL prefix.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for names that are empty, absolute or that
// would escape the media root.
var ErrInvalidName = errors.New("storage: invalid file name")

// Store is a directory on disk holding media files.
type Store struct {
	root      string
	urlPrefix string
}

// New creates root if needed and returns a Store serving files under
// urlPrefix (e.g. "/media/").
func New(root, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating media root %q: %w", root, err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Store{root: root, urlPrefix: urlPrefix}, nil
}

// Root returns the directory the store writes to.
func (s *Store) Root() string {
	return s.root
}

// Save writes r to name, creating parent directories. The file is written to
// a temporary sibling first and renamed into place, so a failed upload never
// leaves a truncated file behind.
func (s *Store) Save(name string, r io.Reader) error {
	full, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage: creating directory for %q: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: creating temp file for %q: %w", name, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: writing %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: closing %q: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("storage: setting mode on %q: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("storage: moving %q into place: %w", name, err)
	}
	return nil
}

// Delete removes name. Deleting a file that does not exist is not an error.
func (s *Store) Delete(name string) error {
	full, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: deleting %q: %w", name, err)
	}
	return nil
}

// URL returns the public URL of name, or "" when name is empty.
func (s *Store) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.urlPrefix + strings.TrimPrefix(path.Clean(name), "/")
}

func (s *Store) path(name string) (string, error) {
	if name == "" || !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), nil
}
