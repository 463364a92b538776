// Package pkg provides tree utilities for settingsync.
package pkg

import (
	"log/slog"
	"strings"

	"github.com/mitchellh/copystructure"
)

// SplitKeyPath splits a dotted key path ("editor.fontSize") into its segments.
func SplitKeyPath(keyPath string) []string {
	if keyPath == "" {
		return nil
	}

	return strings.Split(keyPath, ".")
}

// Get resolves path through nested mappings. Lists are never traversed.
func Get(tree map[string]any, path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}

	current := tree

	for i, key := range path {
		value, ok := current[key]
		if !ok {
			return nil, false
		}

		if i == len(path)-1 {
			return value, true
		}

		next, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}

		current = next
	}

	return nil, false
}

// Remove deletes the value at path from tree in place. It is a no-op when an
// intermediate segment is missing or is not a mapping.
func Remove(tree map[string]any, path []string) {
	if len(path) == 0 || tree == nil {
		return
	}

	key := path[0]
	if len(path) == 1 {
		delete(tree, key)
		return
	}

	child, ok := tree[key].(map[string]any)
	if !ok {
		return
	}

	Remove(child, path[1:])
}

// Set writes value at path in place, creating missing intermediate mappings.
// An existing intermediate that is not a mapping is left untouched and the
// write is dropped.
func Set(tree map[string]any, path []string, value any) {
	if len(path) == 0 || tree == nil {
		return
	}

	key := path[0]
	if len(path) == 1 {
		tree[key] = value
		return
	}

	existing, present := tree[key]
	if !present {
		existing = map[string]any{}
		tree[key] = existing
	}

	child, ok := existing.(map[string]any)
	if !ok {
		slog.Debug("key path blocked by non-mapping value", "key", key, "path", strings.Join(path, "."))
		return
	}

	Set(child, path[1:], value)
}

// DeepCopy returns a copy of tree that shares no mappings or lists with it.
func DeepCopy(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}

	return copyValue(tree).(map[string]any)
}

func copyValue(value any) any {
	copied, err := copystructure.Copy(value)
	if err != nil {
		slog.Warn("could not copy value, sharing it", "error", err)
		return value
	}

	return copied
}

// DeepMerge merges src into dst in place. Mappings present on both sides are
// merged recursively; every other value in src overwrites dst. Keys only in dst
// are kept.
func DeepMerge(dst, src map[string]any) {
	for key, incoming := range src {
		incomingMap, incomingIsMap := incoming.(map[string]any)
		existingMap, existingIsMap := dst[key].(map[string]any)

		if incomingIsMap && existingIsMap {
			DeepMerge(existingMap, incomingMap)
			continue
		}

		dst[key] = copyValue(incoming)
	}
}
