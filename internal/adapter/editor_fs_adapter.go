package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	m "settingsync.dev/pkg/settingsync/internal/model"
)

// Layout file names inside the editor configuration directory.
const (
	ConfigFileName   = "config.yaml"
	keymapFileName   = "keymap.cson"
	stylesFileName   = "styles.less"
	snippetsFileName = "snippets.cson"
	initJSFileName   = "init.js"
	initCSFileName   = "init.coffee"
)

// EditorFSAdapter abstracts access to the editor's configuration directory so
// the domain never touches the disk directly.
type EditorFSAdapter interface {
	// ConfigDir is the root of the editor configuration.
	ConfigDir() m.Path

	// KeymapPath, StylesPath, InitScriptPath and SnippetsPath locate the user
	// files synced alongside the settings.
	KeymapPath() m.Path
	StylesPath() m.Path
	InitScriptPath() m.Path
	SnippetsPath() m.Path

	// ReadFile loads a file.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// WriteFile replaces a file, creating parent directories as needed.
	WriteFile(ctx context.Context, path m.Path, content []byte) error
}

// LocalEditorFSAdapter is the disk-backed EditorFSAdapter.
type LocalEditorFSAdapter struct {
	configDir m.Path
}

// NewLocalEditorFSAdapter returns an adapter rooted at configDir.
func NewLocalEditorFSAdapter(configDir m.Path) *LocalEditorFSAdapter {
	return &LocalEditorFSAdapter{configDir: configDir}
}

// ConfigDir implements EditorFSAdapter.
func (a *LocalEditorFSAdapter) ConfigDir() m.Path {
	return a.configDir
}

// KeymapPath implements EditorFSAdapter.
func (a *LocalEditorFSAdapter) KeymapPath() m.Path {
	return a.join(keymapFileName)
}

// StylesPath implements EditorFSAdapter.
func (a *LocalEditorFSAdapter) StylesPath() m.Path {
	return a.join(stylesFileName)
}

// SnippetsPath implements EditorFSAdapter.
func (a *LocalEditorFSAdapter) SnippetsPath() m.Path {
	return a.join(snippetsFileName)
}

// InitScriptPath returns init.js when present, else init.coffee.
func (a *LocalEditorFSAdapter) InitScriptPath() m.Path {
	jsPath := a.join(initJSFileName)
	if _, err := os.Stat(string(jsPath)); err == nil {
		return jsPath
	}

	return a.join(initCSFileName)
}

// ReadFile implements EditorFSAdapter.
func (a *LocalEditorFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.ReadFile(string(path))
}

// WriteFile implements EditorFSAdapter.
func (a *LocalEditorFSAdapter) WriteFile(ctx context.Context, path m.Path, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(string(path), content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func (a *LocalEditorFSAdapter) join(name string) m.Path {
	return m.Path(filepath.Join(string(a.configDir), name))
}
