// Package media manages the files the plugin publishes under MEDIA_ROOT:
// imported harness sources, rendered diagrams and their previews.
package media

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/security"
)

// URLPrefix is where MEDIA_ROOT is served.
const URLPrefix = "/media/"

// ErrOutsideRoot is returned for paths escaping the media root.
var ErrOutsideRoot = errors.New("path escapes media root")

// Store writes and removes files below a media root directory. Paths handed
// out are slash-separated and relative to the root.
type Store struct {
	root        string
	harnessPath string
}

// NewStore creates a Store rooted at root; harness files go under harnessPath.
func NewStore(root, harnessPath string) *Store {
	return &Store{root: root, harnessPath: harnessPath}
}

// Root returns the media root directory.
func (s *Store) Root() string {
	return s.root
}

// PartDir returns the relative directory holding a part's harness files.
func (s *Store) PartDir(partID int64) string {
	return path.Join(s.harnessPath, strconv.FormatInt(partID, 10))
}

// SaveHarnessFile writes data under the part's directory with a fresh ULID
// name and the given extension. Returns the relative path.
func (s *Store) SaveHarnessFile(partID int64, ext string, data []byte) (string, error) {
	rel := path.Join(s.PartDir(partID), security.GenerateULID()+"."+strings.TrimPrefix(ext, "."))
	if err := s.Write(rel, data); err != nil {
		return "", err
	}
	return rel, nil
}

// Write stores data at the relative path, creating directories as needed.
func (s *Store) Write(rel string, data []byte) error {
	full, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// Read returns the contents of a relative path.
func (s *Store) Read(rel string) ([]byte, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Remove deletes the files at the given relative paths. Empty paths and
// files that are already gone are ignored.
func (s *Store) Remove(rels ...string) error {
	var errs []error
	for _, rel := range rels {
		if rel == "" {
			continue
		}
		full, err := s.Resolve(rel)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", rel, err))
		}
	}
	return errors.Join(errs...)
}

// RemovePartDir deletes every stored file for the part.
func (s *Store) RemovePartDir(partID int64) error {
	full, err := s.Resolve(s.PartDir(partID))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("failed to remove harness directory: %w", err)
	}
	return nil
}

// URL returns the public URL of a relative path.
func (s *Store) URL(rel string) string {
	return URLPrefix + strings.TrimPrefix(rel, "/")
}

// Resolve maps a relative path onto the filesystem, rejecting anything that
// would land outside the root.
func (s *Store) Resolve(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" || strings.Contains(rel, "\x00") {
		return "", ErrOutsideRoot
	}
	if cleaned := path.Clean(filepath.ToSlash(rel)); cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", ErrOutsideRoot
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
