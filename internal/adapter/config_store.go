// Package adapter contains the infrastructure adapters the sync engine talks to:
// the live configuration store, the editor's files, installed packages, the
// package manager, the gist API and the system URL opener.
package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
	m "settingsync.dev/pkg/settingsync/internal/model"
	"settingsync.dev/pkg/settingsync/pkg"
)

// ConfigStore is the live configuration of the editor. Values are addressed by
// dotted key path; Get and Set operate on the default scope.
type ConfigStore interface {
	// Get returns the value at keyPath in the default scope.
	Get(keyPath string) (any, bool)

	// Set writes value at keyPath in the default scope and persists the store.
	Set(keyPath string, value any) error

	// Settings returns a deep copy of the default scope.
	Settings() m.Tree

	// ScopedSettings returns deep copies of every scope other than the default
	// one, keyed by scope selector.
	ScopedSettings() map[string]m.Tree

	// Merge deep-merges values into the given scope and persists the store.
	// Keys not present in values are left untouched.
	Merge(scope string, values m.Tree) error
}

// FileConfigStore is a ConfigStore persisted to a single file, which can be
// re-read after something else replaced it.
type FileConfigStore interface {
	ConfigStore

	Path() m.Path
	Reload() error
}

// MemoryConfigStore keeps the configuration tree in memory only.
type MemoryConfigStore struct {
	mu     sync.RWMutex
	scopes m.Tree
	save   func(m.Tree) error
}

// NewMemoryConfigStore builds a store whose default scope starts as a copy of
// settings.
func NewMemoryConfigStore(settings m.Tree) *MemoryConfigStore {
	scopes := m.Tree{m.DefaultScope: m.Tree{}}
	if settings != nil {
		scopes[m.DefaultScope] = pkg.DeepCopy(settings)
	}

	return &MemoryConfigStore{scopes: scopes}
}

// Get implements ConfigStore.
func (s *MemoryConfigStore) Get(keyPath string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := pkg.Get(s.scopes, append([]string{m.DefaultScope}, pkg.SplitKeyPath(keyPath)...))
	if !ok {
		return nil, false
	}

	if tree, isTree := value.(m.Tree); isTree {
		return pkg.DeepCopy(tree), true
	}

	return value, true
}

// Set implements ConfigStore.
func (s *MemoryConfigStore) Set(keyPath string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pkg.Set(s.scopes, append([]string{m.DefaultScope}, pkg.SplitKeyPath(keyPath)...), value)

	return s.persist()
}

// Settings implements ConfigStore.
func (s *MemoryConfigStore) Settings() m.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defaults, _ := s.scopes[m.DefaultScope].(m.Tree)
	if defaults == nil {
		return m.Tree{}
	}

	return pkg.DeepCopy(defaults)
}

// ScopedSettings implements ConfigStore.
func (s *MemoryConfigStore) ScopedSettings() map[string]m.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scoped := make(map[string]m.Tree)

	for selector, value := range s.scopes {
		if selector == m.DefaultScope {
			continue
		}

		if tree, ok := value.(m.Tree); ok {
			scoped[selector] = pkg.DeepCopy(tree)
		}
	}

	return scoped
}

// Merge implements ConfigStore.
func (s *MemoryConfigStore) Merge(scope string, values m.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scope == "" {
		scope = m.DefaultScope
	}

	existing, ok := s.scopes[scope].(m.Tree)
	if !ok {
		existing = m.Tree{}
		s.scopes[scope] = existing
	}

	pkg.DeepMerge(existing, values)

	return s.persist()
}

// Scopes returns the selectors currently present, sorted.
func (s *MemoryConfigStore) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	selectors := make([]string, 0, len(s.scopes))
	for selector := range s.scopes {
		selectors = append(selectors, selector)
	}

	sort.Strings(selectors)

	return selectors
}

func (s *MemoryConfigStore) persist() error {
	if s.save == nil {
		return nil
	}

	return s.save(s.scopes)
}

// YAMLConfigStore is a MemoryConfigStore backed by a scope-keyed YAML file.
// Every mutation rewrites the file.
type YAMLConfigStore struct {
	*MemoryConfigStore

	path m.Path
}

// NewYAMLConfigStore loads the configuration file at path. A missing file
// yields an empty store which is created on the first write.
func NewYAMLConfigStore(path m.Path) (*YAMLConfigStore, error) {
	scopes, err := loadScopes(path)
	if err != nil {
		return nil, err
	}

	store := &YAMLConfigStore{
		MemoryConfigStore: &MemoryConfigStore{scopes: scopes},
		path:              path,
	}
	store.save = store.write

	slog.Debug("loaded configuration", "path", path, "scopes", len(scopes))

	return store, nil
}

// Path returns the backing file.
func (s *YAMLConfigStore) Path() m.Path {
	return s.path
}

// Reload replaces the in-memory tree with the current file content.
func (s *YAMLConfigStore) Reload() error {
	scopes, err := loadScopes(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.scopes = scopes

	return nil
}

func loadScopes(path m.Path) (m.Tree, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		if os.IsNotExist(err) {
			return m.Tree{m.DefaultScope: m.Tree{}}, nil
		}

		return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse configuration %s: %w", path, err)
	}

	scopes := m.Tree{}

	for selector, value := range raw {
		tree, ok := normalize(value).(m.Tree)
		if !ok {
			slog.Warn("ignoring non-mapping scope in configuration", "path", path, "scope", selector)
			continue
		}

		scopes[selector] = tree
	}

	if _, ok := scopes[m.DefaultScope]; !ok {
		scopes[m.DefaultScope] = m.Tree{}
	}

	return scopes, nil
}

// normalize converts yaml's map[any]any nodes into string-keyed trees.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(m.Tree, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}

		return out
	case map[any]any:
		out := make(m.Tree, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalize(item)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}

		return out
	default:
		return v
	}
}

func (s *YAMLConfigStore) write(scopes m.Tree) error {
	data, err := yaml.Marshal(scopes)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	dir := filepath.Dir(string(s.path))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp configuration: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write configuration: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	if err := os.Rename(tmpName, string(s.path)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace configuration %s: %w", s.path, err)
	}

	slog.Debug("saved configuration", "path", s.path)

	return nil
}
