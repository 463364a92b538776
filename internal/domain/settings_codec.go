package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"settingsync.dev/pkg/settingsync/internal/adapter"
	m "settingsync.dev/pkg/settingsync/internal/model"
	"settingsync.dev/pkg/settingsync/pkg"
)

// fixedDenyList holds keys that never leave the machine: the tool's own
// identifiers and secrets.
var fixedDenyList = []string{
	KeyGistID,
	KeyPersonalAccessToken,
	KeyAnalyticsUserID, // legacy
	KeyLastBackupHash,
}

// DenyList returns the fixed keys followed by the user's blacklistedKeys.
func DenyList(store adapter.ConfigStore) []string {
	keys := append([]string(nil), fixedDenyList...)
	return append(keys, stringList(store, KeyBlacklistedKeys)...)
}

// Snapshot is a parsed settings.json. Backups taken before scoped settings
// were supported are flat; both shapes resolve to a scope-keyed tree.
type Snapshot interface {
	Scopes() m.Tree
}

// LegacySnapshot is a flat tree of default-scope settings.
type LegacySnapshot struct {
	Settings m.Tree
}

// Scopes implements Snapshot.
func (s LegacySnapshot) Scopes() m.Tree {
	return m.Tree{m.DefaultScope: s.Settings}
}

// ScopedSnapshot is keyed by scope selector.
type ScopedSnapshot struct {
	Tree m.Tree
}

// Scopes implements Snapshot.
func (s ScopedSnapshot) Scopes() m.Tree {
	return s.Tree
}

// ParseSnapshot decodes settings.json content. A document without a "*" key is
// a LegacySnapshot.
func ParseSnapshot(content string) (Snapshot, error) {
	var tree m.Tree
	if err := json.Unmarshal([]byte(content), &tree); err != nil {
		return nil, err
	}

	if tree == nil {
		return nil, fmt.Errorf("settings must be a JSON object")
	}

	if _, scoped := tree[m.DefaultScope]; !scoped {
		return LegacySnapshot{Settings: tree}, nil
	}

	return ScopedSnapshot{Tree: tree}, nil
}

// SettingsCodec captures the live configuration into a settings snapshot and
// applies snapshots back.
type SettingsCodec struct {
	store adapter.ConfigStore
}

// NewSettingsCodec creates a codec over store.
func NewSettingsCodec(store adapter.ConfigStore) *SettingsCodec {
	return &SettingsCodec{store: store}
}

// Capture serializes default and scoped settings with deny-listed keys
// removed. Keys are removed from the "*" scope only; scoped overrides keep
// them.
func (c *SettingsCodec) Capture() (string, error) {
	tree := m.Tree{}
	for selector, settings := range c.store.ScopedSettings() {
		tree[selector] = settings
	}

	tree[m.DefaultScope] = c.store.Settings()

	for _, key := range DenyList(c.store) {
		pkg.Remove(tree, defaultScopePath(key))
	}

	return encodeJSON(tree)
}

// Apply merges snapshot into the live configuration. The current values of
// deny-listed keys are written into the snapshot first, so local-only keys
// survive a restore unchanged.
func (c *SettingsCodec) Apply(snapshot Snapshot) error {
	tree := pkg.DeepCopy(snapshot.Scopes())

	for _, key := range DenyList(c.store) {
		value, ok := c.store.Get(key)
		if !ok || value == nil {
			continue
		}

		pkg.Set(tree, defaultScopePath(key), value)
	}

	selectors := make([]string, 0, len(tree))
	for selector := range tree {
		selectors = append(selectors, selector)
	}

	sort.Strings(selectors)

	for _, selector := range selectors {
		values, ok := tree[selector].(m.Tree)
		if !ok {
			slog.Warn("skipping non-mapping scope in snapshot", "scope", selector)
			continue
		}

		if err := c.store.Merge(selector, values); err != nil {
			return fmt.Errorf("apply settings for scope %q: %w", selector, err)
		}
	}

	return nil
}

func defaultScopePath(key string) []string {
	return append([]string{m.DefaultScope}, pkg.SplitKeyPath(key)...)
}

// encodeJSON writes tab-indented JSON without HTML escaping. Map keys are
// sorted, which keeps the output stable between backups.
func encodeJSON(value any) (string, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "\t")

	if err := encoder.Encode(value); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
