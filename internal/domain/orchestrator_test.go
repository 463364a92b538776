package domain_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"settingsync.dev/pkg/settingsync/internal/adapter"
	adaptermocks "settingsync.dev/pkg/settingsync/internal/adapter/mocks"
	"settingsync.dev/pkg/settingsync/internal/controller"
	"settingsync.dev/pkg/settingsync/internal/domain"
	m "settingsync.dev/pkg/settingsync/internal/model"
)

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(string(f.files.ConfigDir()), name), []byte(content), 0o600))
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()

	content, err := os.ReadFile(filepath.Join(string(f.files.ConfigDir()), name))
	require.NoError(t, err)

	return string(content)
}

func (f *fixture) exists(name string) bool {
	_, err := os.Stat(filepath.Join(string(f.files.ConfigDir()), name))
	return err == nil
}

func buttonTexts(notice controller.Notice) []string {
	var texts []string
	for _, button := range notice.Buttons {
		texts = append(texts, button.Text)
	}

	return texts
}

func TestOrchestrator_CheckMandatory(t *testing.T) {
	t.Run("reports every missing setting at once", func(t *testing.T) {
		f := newFixture(t, nil)

		assert.False(t, f.orch.CheckMandatory(context.Background()))

		notice := f.sink.last()
		assert.Equal(t, controller.LevelError, notice.Level)
		assert.Equal(t, "Mandatory settings missing: Gist ID, GitHub personal access token", notice.Message)
		assert.Equal(t, []string{"Package settings"}, buttonTexts(notice))
	})

	t.Run("package settings button opens the config file", func(t *testing.T) {
		f := newFixture(t, m.Tree{"sync-settings": m.Tree{"gistId": "abc123"}})
		path := filepath.Join(string(f.files.ConfigDir()), adapter.ConfigFileName)
		f.opener.On("Open", mock.Anything, path).Return(nil).Once()

		assert.False(t, f.orch.CheckMandatory(context.Background()))

		notice := f.sink.last()
		assert.Equal(t, "Mandatory settings missing: GitHub personal access token", notice.Message)
		require.NoError(t, notice.Buttons[0].OnClick(context.Background()))
	})

	t.Run("falls back to the environment", func(t *testing.T) {
		f := newFixture(t, nil)
		f.env[domain.EnvGistID] = " abc123 "
		f.env[domain.EnvGitHubToken] = "token"

		assert.True(t, f.orch.CheckMandatory(context.Background()))
		assert.Empty(t, f.sink.notices)
	})

	t.Run("blank values count as missing", func(t *testing.T) {
		f := newFixture(t, m.Tree{"sync-settings": m.Tree{"gistId": "  ", "personalAccessToken": "token"}})

		assert.False(t, f.orch.CheckMandatory(context.Background()))
		assert.Equal(t, "Mandatory settings missing: Gist ID", f.sink.last().Message)
	})
}

func TestOrchestrator_CheckForUpdate(t *testing.T) {
	t.Run("missing gist id", func(t *testing.T) {
		f := newFixture(t, nil)

		err := f.orch.CheckForUpdate(context.Background(), true)

		assert.ErrorIs(t, err, domain.ErrMissingMandatory)
		assert.Equal(t, "Mandatory settings missing: Gist ID", f.sink.last().Message)
	})

	t.Run("newer backup available", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{"_lastBackupHash": "v1"}))
		f.client.On("Get", mock.Anything, "abc123").Return(gist("v2", nil), nil).Once()

		require.NoError(t, f.orch.CheckForUpdate(context.Background(), false))

		notice := f.sink.last()
		assert.Equal(t, controller.LevelWarning, notice.Level)
		assert.Equal(t, "Your settings are out of date.", notice.Message)
		assert.Equal(t, []string{"Backup", "View backup", "Restore", "Dismiss"}, buttonTexts(notice))
	})

	t.Run("view backup button opens the gist page", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.client.On("Get", mock.Anything, "abc123").Return(gist("v2", nil), nil).Once()
		f.opener.On("Open", mock.Anything, "https://gist.github.com/abc123").Return(nil).Once()

		require.NoError(t, f.orch.CheckForUpdate(context.Background(), false))
		require.NoError(t, f.sink.last().Buttons[1].OnClick(context.Background()))
	})

	tests := []struct {
		name              string
		quiet             bool
		notifyIfUnchanged bool
		wantNotice        bool
	}{
		{name: "up to date and not quiet", quiet: false, notifyIfUnchanged: false, wantNotice: true},
		{name: "up to date and quiet", quiet: true, notifyIfUnchanged: false, wantNotice: false},
		{name: "up to date, quiet, explicitly asked", quiet: true, notifyIfUnchanged: true, wantNotice: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, configured(m.Tree{"_lastBackupHash": "v2", "quietUpdateCheck": tt.quiet}))
			f.client.On("Get", mock.Anything, "abc123").Return(gist("v2", nil), nil).Once()

			require.NoError(t, f.orch.CheckForUpdate(context.Background(), tt.notifyIfUnchanged))

			if tt.wantNotice {
				assert.Equal(t, []string{"Latest backup is already applied."}, f.sink.messages(controller.LevelSuccess))
			} else {
				assert.Empty(t, f.sink.notices)
			}
		})
	}

	t.Run("response without history", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.client.On("Get", mock.Anything, "abc123").Return(gist("", nil), nil).Once()

		err := f.orch.CheckForUpdate(context.Background(), false)

		assert.ErrorIs(t, err, domain.ErrInvalidDocument)
		assert.Equal(t, "Error retrieving your settings.", f.sink.last().Message)
	})

	t.Run("remote error is translated", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.client.On("Get", mock.Anything, "abc123").
			Return(nil, &adapter.HTTPError{StatusCode: 404, Body: `{"message":"Not Found"}`}).Once()

		err := f.orch.CheckForUpdate(context.Background(), false)

		assert.Error(t, err)
		assert.Equal(t, "Error retrieving your settings. (Gist ID Not Found)", f.sink.last().Message)
	})
}

func TestOrchestrator_Activate(t *testing.T) {
	t.Run("skips the update check when disabled", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{"checkForUpdatedBackup": false}))

		require.NoError(t, f.orch.Activate(context.Background()))
		assert.Empty(t, f.sink.notices)
	})

	t.Run("checks for updates quietly", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{"_lastBackupHash": "v1", "quietUpdateCheck": true}))
		f.client.On("Get", mock.Anything, "abc123").Return(gist("v1", nil), nil).Once()

		require.NoError(t, f.orch.Activate(context.Background()))
		assert.Empty(t, f.sink.notices)
	})

	t.Run("stops on missing settings", func(t *testing.T) {
		f := newFixture(t, nil)

		assert.ErrorIs(t, f.orch.Activate(context.Background()), domain.ErrMissingMandatory)
	})
}

func expectEdit(f *fixture, captured *map[string]string, result *adapter.Gist, err error) {
	f.client.On("Edit", mock.Anything, "abc123", domain.DefaultGistDescription, mock.Anything).
		Run(func(args mock.Arguments) {
			*captured = args.Get(3).(map[string]string)
		}).
		Return(result, err).Once()
}

func TestOrchestrator_Backup(t *testing.T) {
	t.Run("uploads every enabled file with placeholders", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{
			"extraFiles": []any{"extra.css", "notes.txt", "tool.js", "present.md"},
		}))
		f.registry.entries = registryOf(m.Package{Name: "minimap", Version: "4.0.0"}).entries
		f.write(t, m.KeymapFile, "'atom-workspace': {}")
		f.write(t, m.SnippetsFile, "   \n")
		f.write(t, "present.md", "# hi")

		var files map[string]string
		expectEdit(f, &files, gist("v9", nil), nil)

		require.NoError(t, f.orch.Backup(context.Background()))

		assert.Equal(t, "'atom-workspace': {}", files[m.KeymapFile])
		assert.Equal(t, "// styles file (not found)", files[m.StylesFile])
		assert.Equal(t, "# initialization file (not found)", files[m.InitCoffeeFile])
		assert.Equal(t, "# snippets file (not found)", files[m.SnippetsFile])
		assert.Equal(t, "/* extra.css (not found) */", files["extra.css"])
		assert.Equal(t, "# notes.txt (not found) ", files["notes.txt"])
		assert.Equal(t, "// tool.js (not found) ", files["tool.js"])
		assert.Equal(t, "# hi", files["present.md"])
		assert.Contains(t, files[m.PackagesFile], `"name": "minimap"`)
		assert.NotContains(t, files[m.SettingsFile], "ghp_0123456789abcdef")
		assert.NotContains(t, files[m.SettingsFile], "abc123")

		hash, _ := f.store.Get(domain.KeyLastBackupHash)
		assert.Equal(t, "v9", hash)

		notice := f.sink.last()
		assert.Equal(t, "Your settings were successfully backed up.", notice.Message)
		assert.Equal(t, "https://gist.github.com/abc123", notice.Detail)
	})

	t.Run("uploads init.js when present", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.write(t, m.InitJSFile, "console.log(1)")

		var files map[string]string
		expectEdit(f, &files, gist("v2", nil), nil)

		require.NoError(t, f.orch.Backup(context.Background()))

		assert.Equal(t, "console.log(1)", files[m.InitJSFile])
		assert.NotContains(t, files, m.InitCoffeeFile)
	})

	t.Run("disabled toggles leave files out", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{
			"syncSettings": false, "syncPackages": false, "syncKeymap": false,
			"syncStyles": false, "syncInit": false, "syncSnippets": false,
		}))

		var files map[string]string
		expectEdit(f, &files, gist("v2", nil), nil)

		require.NoError(t, f.orch.Backup(context.Background()))
		assert.Empty(t, files)
	})

	t.Run("failure keeps the previous stamp", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{"_lastBackupHash": "v1"}))

		var files map[string]string
		expectEdit(f, &files, nil, &adapter.HTTPError{StatusCode: 401, Body: `{"message":"Bad credentials"}`})

		err := f.orch.Backup(context.Background())

		assert.Error(t, err)
		assert.Equal(t, "Error backing up your settings. (Bad credentials)", f.sink.last().Message)

		hash, _ := f.store.Get(domain.KeyLastBackupHash)
		assert.Equal(t, "v1", hash)
	})

	t.Run("missing settings", func(t *testing.T) {
		f := newFixture(t, nil)

		assert.ErrorIs(t, f.orch.Backup(context.Background()), domain.ErrMissingMandatory)
	})
}

func TestOrchestrator_BackupConfigWarning(t *testing.T) {
	t.Run("warns before uploading the host config", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{"extraFiles": []any{adapter.ConfigFileName}}))

		require.NoError(t, f.orch.Backup(context.Background()))

		notice := f.sink.last()
		assert.Equal(t, controller.LevelWarning, notice.Level)
		assert.Equal(t, "Backing up `config.yaml` is risky.", notice.Message)
		assert.Contains(t, notice.Detail, "GITHUB_TOKEN")
		assert.Equal(t, []string{"Backup Anyway"}, buttonTexts(notice))

		// confirming turns the warning off and backs up
		var files map[string]string
		expectEdit(f, &files, gist("v2", nil), nil)
		f.write(t, adapter.ConfigFileName, "'*': {}")

		require.NoError(t, notice.Buttons[0].OnClick(context.Background()))

		warn, _ := f.store.Get(domain.KeyWarnBackupConfig)
		assert.Equal(t, false, warn)
		assert.Equal(t, "'*': {}", files[adapter.ConfigFileName])
	})

	t.Run("no warning when the token only lives in the environment", func(t *testing.T) {
		f := newFixture(t, m.Tree{"sync-settings": m.Tree{
			"gistId":     "abc123",
			"extraFiles": []any{"config.cson"},
		}})
		f.env[domain.EnvGitHubToken] = "token"

		var files map[string]string
		expectEdit(f, &files, gist("v2", nil), nil)

		require.NoError(t, f.orch.Backup(context.Background()))
		assert.Contains(t, files, "config.cson")
	})
}

func TestOrchestrator_Restore(t *testing.T) {
	t.Run("applies every file and records the stamp", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{"removeObsoletePackages": true}))
		f.registry.entries = registryOf(m.Package{Name: "obsolete"}).entries

		f.client.On("Get", mock.Anything, "abc123").Return(gist("v5", map[string]string{
			m.SettingsFile: `{"*": {"editor": {"fontSize": 18}, "sync-settings": {"gistId": "other"}}}`,
			m.PackagesFile: `[{"name": "minimap", "version": "4.0.0"}]`,
			m.KeymapFile:   "keymap",
			m.StylesFile:   "styles",
			m.InitJSFile:   "init",
			m.SnippetsFile: "snippets",
			"custom.txt":   "custom",
			"../escape":    "nope",
		}), nil).Once()

		require.NoError(t, f.orch.Restore(context.Background()))

		fontSize, _ := f.store.Get("editor.fontSize")
		assert.Equal(t, 18.0, fontSize)

		id, _ := f.store.Get(domain.KeyGistID)
		assert.Equal(t, "abc123", id)

		assert.Equal(t, "keymap", f.read(t, m.KeymapFile))
		assert.Equal(t, "styles", f.read(t, m.StylesFile))
		assert.Equal(t, "init", f.read(t, m.InitJSFile))
		assert.Equal(t, "snippets", f.read(t, m.SnippetsFile))
		assert.Equal(t, "custom", f.read(t, "custom.txt"))
		assert.False(t, f.exists("../escape"))

		assert.Equal(t, []string{"minimap"}, f.manager.installed)
		assert.Equal(t, []string{"obsolete"}, f.manager.uninstalled)

		hash, _ := f.store.Get(domain.KeyLastBackupHash)
		assert.Equal(t, "v5", hash)
		assert.Equal(t, "Your settings were successfully synchronized.", f.sink.last().Message)
	})

	t.Run("disabled toggles skip files", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{"syncKeymap": false, "syncPackages": false}))
		f.client.On("Get", mock.Anything, "abc123").Return(gist("v5", map[string]string{
			m.KeymapFile:   "keymap",
			m.PackagesFile: `[{"name": "minimap"}]`,
		}), nil).Once()

		require.NoError(t, f.orch.Restore(context.Background()))

		assert.False(t, f.exists(m.KeymapFile))
		assert.Empty(t, f.manager.installed)
	})

	t.Run("invalid json aborts before any write", func(t *testing.T) {
		f := newFixture(t, configured(m.Tree{"_lastBackupHash": "v1"}))
		f.client.On("Get", mock.Anything, "abc123").Return(gist("v5", map[string]string{
			m.KeymapFile:   "keymap",
			m.SettingsFile: `{"*": {"editor": `,
			m.PackagesFile: `[]`,
		}), nil).Once()

		err := f.orch.Restore(context.Background())

		var parseErr *domain.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, m.SettingsFile, parseErr.Filename)

		assert.True(t, strings.HasPrefix(f.sink.last().Message, "Error parsing the fetched JSON file 'settings.json'. ("))
		assert.False(t, f.exists(m.KeymapFile))

		hash, _ := f.store.Get(domain.KeyLastBackupHash)
		assert.Equal(t, "v1", hash)
	})

	t.Run("malformed package list keeps installed packages", func(t *testing.T) {
		for _, content := range []string{`null`, `[null]`, `[{}]`, `[{"name": ""}]`} {
			f := newFixture(t, configured(m.Tree{"removeObsoletePackages": true, "_lastBackupHash": "v1"}))
			f.registry.entries = registryOf(m.Package{Name: "a"}, m.Package{Name: "b"}, m.Package{Name: "c"}).entries
			f.client.On("Get", mock.Anything, "abc123").Return(gist("v5", map[string]string{
				m.KeymapFile:   "keymap",
				m.PackagesFile: content,
			}), nil).Once()

			err := f.orch.Restore(context.Background())

			var parseErr *domain.ParseError
			require.ErrorAs(t, err, &parseErr, "content %s", content)
			assert.Equal(t, m.PackagesFile, parseErr.Filename)

			assert.Empty(t, f.manager.installed, "content %s", content)
			assert.Empty(t, f.manager.uninstalled, "content %s", content)
			assert.False(t, f.exists(m.KeymapFile))
			assert.True(t, strings.HasPrefix(f.sink.last().Message, "Error parsing the fetched JSON file 'packages.json'. ("))

			hash, _ := f.store.Get(domain.KeyLastBackupHash)
			assert.Equal(t, "v1", hash)
		}
	})

	t.Run("remote error", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.client.On("Get", mock.Anything, "abc123").
			Return(nil, &adapter.HTTPError{StatusCode: 404, Body: `{"message":"Not Found"}`}).Once()

		assert.Error(t, f.orch.Restore(context.Background()))
		assert.Equal(t, "Error retrieving your settings. (Gist ID Not Found)", f.sink.last().Message)
	})

	t.Run("response without history names the missing field", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.client.On("Get", mock.Anything, "abc123").Return(gist("", map[string]string{m.KeymapFile: "keymap"}), nil).Once()

		err := f.orch.Restore(context.Background())

		assert.ErrorIs(t, err, domain.ErrInvalidDocument)
		assert.Equal(t,
			"Error retrieving your settings. (could not interpret remote document: missing version history)",
			f.sink.last().Message)
		assert.False(t, f.exists(m.KeymapFile))
	})
}

func TestOrchestrator_RestoreHostConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, adapter.ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte(`"*":
  sync-settings:
    gistId: abc123
    personalAccessToken: ghp_local
`), 0o600))

	store, err := adapter.NewYAMLConfigStore(m.Path(configPath))
	require.NoError(t, err)

	client := adaptermocks.NewMockGistClient(t)
	client.On("Get", mock.Anything, "abc123").Return(gist("v7", map[string]string{
		adapter.ConfigFileName: "\"*\":\n  editor:\n    fontSize: 20\n  sync-settings:\n    gistId: remote-id\n",
		m.SettingsFile:         `{"*": {"editor": {"tabLength": 8}}}`,
	}), nil).Once()

	orch := domain.NewOrchestrator(domain.Dependencies{
		Store:          store,
		Files:          adapter.NewLocalEditorFSAdapter(m.Path(dir)),
		Registry:       &fakeRegistry{},
		PackageManager: &fakePackageManager{},
		Sink:           &recordingSink{},
		NewGistClient: func(string) adapter.GistClient {
			return client
		},
		Fallback: func(string) string {
			return ""
		},
	})

	require.NoError(t, orch.Restore(context.Background()))

	onDisk, err := adapter.NewYAMLConfigStore(m.Path(configPath))
	require.NoError(t, err)

	fontSize, _ := onDisk.Get("editor.fontSize")
	assert.EqualValues(t, 20, fontSize)

	tabLength, _ := onDisk.Get("editor.tabLength")
	assert.EqualValues(t, 8, tabLength)

	id, _ := onDisk.Get(domain.KeyGistID)
	assert.Equal(t, "abc123", id)

	token, _ := onDisk.Get(domain.KeyPersonalAccessToken)
	assert.Equal(t, "ghp_local", token)

	hash, _ := onDisk.Get(domain.KeyLastBackupHash)
	assert.Equal(t, "v7", hash)
}

func TestOrchestrator_Busy(t *testing.T) {
	f := newFixture(t, configured(nil))

	entered := make(chan struct{})
	release := make(chan struct{})

	f.client.On("Edit", mock.Anything, "abc123", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(gist("v2", nil), nil).Once()

	done := make(chan error, 1)

	go func() {
		done <- f.orch.Backup(context.Background())
	}()

	<-entered

	assert.ErrorIs(t, f.orch.Restore(context.Background()), domain.ErrBusy)
	assert.ErrorIs(t, f.orch.Fork(context.Background(), "other"), domain.ErrBusy)

	close(release)
	require.NoError(t, <-done)
}

func TestOrchestrator_ViewBackup(t *testing.T) {
	t.Run("opens the gist page", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.opener.On("Open", mock.Anything, "https://gist.github.com/abc123").Return(nil).Once()

		require.NoError(t, f.orch.ViewBackup(context.Background()))
	})

	t.Run("only needs the gist id", func(t *testing.T) {
		f := newFixture(t, nil)
		f.env[domain.EnvGistID] = "xyz"
		f.opener.On("Open", mock.Anything, "https://gist.github.com/xyz").Return(errors.New("no browser")).Once()

		assert.Error(t, f.orch.ViewBackup(context.Background()))
		assert.Equal(t, controller.LevelError, f.sink.last().Level)
	})
}

func TestOrchestrator_Fork(t *testing.T) {
	t.Run("stores the new id", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.client.On("Fork", mock.Anything, "source").Return(&adapter.Gist{ID: "fresh"}, nil).Once()

		require.NoError(t, f.orch.Fork(context.Background(), " source "))

		id, _ := f.store.Get(domain.KeyGistID)
		assert.Equal(t, "fresh", id)
		assert.Equal(t, "Forked successfully to the new Gist ID fresh which has been saved to your config.", f.sink.last().Message)
	})

	t.Run("response without id", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.client.On("Fork", mock.Anything, "source").Return(&adapter.Gist{}, nil).Once()

		assert.ErrorIs(t, f.orch.Fork(context.Background(), "source"), domain.ErrInvalidDocument)
		assert.Equal(t, "Error forking settings.", f.sink.last().Message)

		id, _ := f.store.Get(domain.KeyGistID)
		assert.Equal(t, "abc123", id)
	})

	t.Run("remote error", func(t *testing.T) {
		f := newFixture(t, configured(nil))
		f.client.On("Fork", mock.Anything, "source").
			Return(nil, &adapter.HTTPError{StatusCode: 404, Body: `{"message":"Not Found"}`}).Once()

		assert.Error(t, f.orch.Fork(context.Background(), "source"))
		assert.Equal(t, "Error forking settings. (Gist ID Not Found)", f.sink.last().Message)
	})

	t.Run("needs a token", func(t *testing.T) {
		f := newFixture(t, nil)

		assert.ErrorIs(t, f.orch.Fork(context.Background(), "source"), domain.ErrMissingMandatory)
		assert.Equal(t, "Mandatory settings missing: GitHub personal access token", f.sink.last().Message)
	})
}

func TestOrchestrator_Packages(t *testing.T) {
	f := newFixture(t, nil)
	f.registry.entries = registryOf(m.Package{Name: "b"}, m.Package{Name: "a"}).entries

	packages, err := f.orch.Packages(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []m.Package{{Name: "a"}, {Name: "b"}}, packages)
}
