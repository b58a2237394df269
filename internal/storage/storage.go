package storage

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/configme/internal/loader"
	"github.com/eugenenazirov/configme/internal/resolver"
)

// DefaultEnvironment is used when no environment name is configured.
const DefaultEnvironment = "development"

// ListDirFunc lists the entries of a directory.
type ListDirFunc func(name string) ([]fs.DirEntry, error)

// Store keeps effective settings in memory, keyed by the camel-cased name of
// the file they came from, and guards access with a RWMutex.
type Store struct {
	mu       sync.RWMutex
	settings map[string]any

	environment string
	loader      loader.Loader
	resolver    resolver.Resolver
	listDir     ListDirFunc
	logger      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLoader sets the loader, and with it the recognised file extension.
func WithLoader(l loader.Loader) Option {
	return func(s *Store) {
		s.loader = l
	}
}

// WithResolver overrides how raw definitions are resolved.
func WithResolver(r resolver.Resolver) Option {
	return func(s *Store) {
		s.resolver = r
	}
}

// WithDirLister overrides how directories are listed, primarily for tests.
func WithDirLister(listDir ListDirFunc) Option {
	return func(s *Store) {
		s.listDir = listDir
	}
}

// WithLogger sets the logger used for ingestion events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an empty Store resolving definitions for environment. An empty
// environment falls back to DefaultEnvironment. Without options the Store
// reads YAML files from the local file system.
func New(environment string, opts ...Option) *Store {
	if strings.TrimSpace(environment) == "" {
		environment = DefaultEnvironment
	}

	s := &Store{
		settings:    make(map[string]any),
		environment: environment,
		loader:      loader.YAML(),
		resolver:    resolver.New(),
		listDir:     os.ReadDir,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Environment returns the environment name definitions are resolved for.
func (s *Store) Environment() string {
	return s.environment
}

// Extension returns the recognised settings file extension.
func (s *Store) Extension() string {
	return s.loader.Extension()
}

// Get returns a copy of the value stored under key. The boolean is false
// when the key is absent.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.settings[key]
	if !ok {
		return nil, false
	}
	return resolver.Clone(value), true
}

// Set stores value under key, replacing whatever was there.
func (s *Store) Set(key string, value any) *Store {
	value = resolver.Clone(value)

	s.mu.Lock()
	s.settings[key] = value
	s.mu.Unlock()

	return s
}

// Push appends values to the sequence stored under key. A missing key, or a
// key holding anything but a sequence, starts from an empty sequence.
func (s *Store) Push(key string, values ...any) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.settings[key].([]any)
	if !ok || current == nil {
		current = make([]any, 0, len(values))
	}
	for _, value := range values {
		current = append(current, resolver.Clone(value))
	}
	s.settings[key] = current

	return s
}

// Keys returns the stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.settings))
}

// Snapshot returns a deep copy of every stored setting.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.settings))
	for key, value := range s.settings {
		out[key] = resolver.Clone(value)
	}
	return out
}

// Reset drops every stored setting.
func (s *Store) Reset() {
	s.mu.Lock()
	clear(s.settings)
	s.mu.Unlock()
}

// LoadFile decodes the settings file at path, resolves it for the Store's
// environment and stores the result under the key derived from the file
// name.
func (s *Store) LoadFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("load file: %w", ErrInvalidArgument)
	}
	if !strings.HasSuffix(path, s.loader.Extension()) {
		return fmt.Errorf("load file %s: %w, expected %s", path, ErrInvalidFormat, s.loader.Extension())
	}

	raw, err := s.loader.Load(path)
	if err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	key := KeyFromFilename(path)
	value := s.resolver.Resolve(raw, s.environment)

	s.mu.Lock()
	s.settings[key] = value
	s.mu.Unlock()

	s.logger.Debug("settings file loaded",
		zap.String("key", key),
		zap.String("path", path),
		zap.Stringer("kind", resolver.Classify(raw).Kind()),
	)
	return nil
}

// LoadDir loads every file in dir carrying the recognised extension, in
// directory listing order. Other entries are skipped. Files loaded before a
// failing one stay in the Store.
func (s *Store) LoadDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("load dir: %w", ErrInvalidArgument)
	}

	entries, err := s.listDir(dir)
	if err != nil {
		return fmt.Errorf("load dir %s: %w", dir, err)
	}

	extension := s.loader.Extension()
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), extension) {
			continue
		}
		if err := s.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
		loaded++
	}

	s.logger.Info("settings directory loaded",
		zap.String("dir", dir),
		zap.String("environment", s.environment),
		zap.Int("files", loaded),
	)
	return nil
}
