// Package templates manages the shared WireViz template files that are
// prepended to every imported harness.
package templates

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/wireviz"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"gopkg.in/yaml.v3"
)

// Extension marks template files.
const Extension = ".wireviz"

var (
	ErrNotFound    = errors.New("template not found")
	ErrInvalidName = errors.New("invalid template name")
	ErrInvalidYAML = errors.New("template is not valid yaml")
)

// Entry describes one stored template.
type Entry struct {
	Name string
	Path string // relative to the media root
	Size int64
}

// Store reads and writes templates in MEDIA_ROOT/<subdir>.
type Store struct {
	mediaRoot string
	logger    *logging.ChanneledLogger

	mu      sync.RWMutex
	subdir  string
	prepend []byte
	cached  bool
}

// NewStore creates a template store below mediaRoot.
func NewStore(mediaRoot, subdir string, logger *logging.ChanneledLogger) *Store {
	return &Store{mediaRoot: mediaRoot, subdir: subdir, logger: logger}
}

// Subdir returns the configured template directory relative to the media root.
func (s *Store) Subdir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subdir
}

// Dir returns the absolute template directory. Empty when templates are disabled.
func (s *Store) Dir() string {
	subdir := s.Subdir()
	if subdir == "" {
		return ""
	}
	return filepath.Join(s.mediaRoot, filepath.FromSlash(subdir))
}

// SetSubdir points the store at another directory below the media root.
// An empty subdir disables templates.
func (s *Store) SetSubdir(subdir string) error {
	subdir = strings.Trim(filepath.ToSlash(strings.TrimSpace(subdir)), "/")
	if subdir != "" {
		clean := path.Clean(subdir)
		if clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("%w: %q leaves the media root", ErrInvalidName, subdir)
		}
		subdir = clean
	}

	s.mu.Lock()
	s.subdir = subdir
	s.prepend, s.cached = nil, false
	s.mu.Unlock()
	return nil
}

// EnsureDir creates the template directory if it is missing.
func (s *Store) EnsureDir() error {
	dir := s.Dir()
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// List returns the templates sorted by name. A missing directory yields an empty list.
func (s *Store) List() ([]Entry, error) {
	dir := s.Dir()
	if dir == "" {
		return []Entry{}, nil
	}

	items, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	entries := []Entry{}
	for _, item := range items {
		if item.IsDir() || !isTemplate(item.Name()) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name: item.Name(),
			Path: path.Join(s.Subdir(), item.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Save validates and stores a template, replacing any file of the same name.
func (s *Store) Save(name string, data []byte) (Entry, error) {
	if err := ValidateName(name); err != nil {
		return Entry{}, err
	}
	if s.Subdir() == "" {
		return Entry{}, fmt.Errorf("%w: template directory is not configured", ErrInvalidName)
	}

	var probe any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := s.EnsureDir(); err != nil {
		return Entry{}, fmt.Errorf("failed to create template directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), name), data, 0644); err != nil {
		return Entry{}, fmt.Errorf("failed to write template: %w", err)
	}

	s.Invalidate()
	s.logger.Storage().Info("Template stored", "name", name, "size", len(data))
	return Entry{Name: name, Path: path.Join(s.Subdir(), name), Size: int64(len(data))}, nil
}

// Delete removes a template by name.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	dir := s.Dir()
	if dir == "" {
		return ErrNotFound
	}

	err := os.Remove(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	s.Invalidate()
	s.logger.Storage().Info("Template deleted", "name", name)
	return nil
}

// PrependData returns the concatenated templates, each followed by a blank
// line, in name order. The result is cached until Invalidate.
func (s *Store) PrependData() ([]byte, error) {
	s.mu.RLock()
	if s.cached {
		data := s.prepend
		s.mu.RUnlock()
		return data, nil
	}
	s.mu.RUnlock()

	dir := s.Dir()
	if dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			s.logger.Storage().Warn("Wireviz path does not exist", "path", dir)
		}
	}

	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	contents := make([][]byte, 0, len(entries))
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(dir, entry.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", entry.Name, err)
		}
		s.logger.Storage().Debug("Loading wireviz template file", "name", entry.Name)
		contents = append(contents, data)
	}
	data := wireviz.Prepend(contents, nil)

	s.mu.Lock()
	s.prepend, s.cached = data, true
	s.mu.Unlock()
	return data, nil
}

// Invalidate drops the cached prepend data.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.prepend, s.cached = nil, false
	s.mu.Unlock()
}

// ValidateName accepts bare file names with the template extension.
func ValidateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !isTemplate(name) {
		return fmt.Errorf("%w: %q must end in %s", ErrInvalidName, name, Extension)
	}
	return nil
}

func isTemplate(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), Extension)
}
