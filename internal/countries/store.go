// store.go - Configuration sources and the atomically swapped registry holder

package countries

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// Source produces a complete Registry from some backing store.
type Source interface {
	Load(ctx context.Context) (*Registry, error)
	Describe() string
}

// FileSource reads the configuration from a JSON file on disk.
type FileSource struct {
	Path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads, validates and decodes the configuration file.
func (s *FileSource) Load(_ context.Context) (*Registry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read country configuration %s: %w", s.Path, err)
	}
	reg, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("load country configuration %s: %w", s.Path, err)
	}
	return reg, nil
}

// Describe names the source for logs and health output.
func (s *FileSource) Describe() string {
	return "file:" + s.Path
}

// Store hands out the current Registry. A reload builds a fresh Registry and swaps
// the pointer only when loading succeeded, so in-flight requests keep the one they read.
type Store struct {
	source  Source
	current atomic.Pointer[Registry]
	lastErr atomic.Pointer[loadError]
}

type loadError struct {
	err error
}

// NewStore creates an empty store bound to source. Call Reload to populate it.
func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Registry returns the current configuration or nil when none has loaded.
func (s *Store) Registry() *Registry {
	return s.current.Load()
}

// Ready reports whether a non-empty configuration is available.
func (s *Store) Ready() bool {
	return s.current.Load().Len() > 0
}

// LastError returns the error from the most recent failed load, or nil after a success.
func (s *Store) LastError() error {
	if le := s.lastErr.Load(); le != nil {
		return le.err
	}
	return nil
}

// Source describes where the configuration comes from.
func (s *Store) Source() string {
	if s.source == nil {
		return "none"
	}
	return s.source.Describe()
}

// Reload loads the configuration again. On failure the previous Registry stays in place.
func (s *Store) Reload(ctx context.Context) error {
	if s.source == nil {
		err := fmt.Errorf("no country configuration source: %w", ErrEmptyConfiguration)
		s.lastErr.Store(&loadError{err: err})
		return err
	}

	reg, err := s.source.Load(ctx)
	if err != nil {
		s.lastErr.Store(&loadError{err: err})
		return err
	}

	s.current.Store(reg)
	s.lastErr.Store(nil)
	log.Printf("✓ Country configuration loaded from %s: %v", s.source.Describe(), reg.Codes())
	return nil
}
