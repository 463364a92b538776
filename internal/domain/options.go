package domain

import (
	"os"
	"strings"

	"settingsync.dev/pkg/settingsync/internal/adapter"
)

// Keys of the tool's own settings inside the live configuration.
const (
	KeyGistID                 = "sync-settings.gistId"
	KeyPersonalAccessToken    = "sync-settings.personalAccessToken"
	KeyAnalyticsUserID        = "sync-settings._analyticsUserId"
	KeyLastBackupHash         = "sync-settings._lastBackupHash"
	KeySyncSettings           = "sync-settings.syncSettings"
	KeySyncPackages           = "sync-settings.syncPackages"
	KeySyncKeymap             = "sync-settings.syncKeymap"
	KeySyncStyles             = "sync-settings.syncStyles"
	KeySyncInit               = "sync-settings.syncInit"
	KeySyncSnippets           = "sync-settings.syncSnippets"
	KeyExtraFiles             = "sync-settings.extraFiles"
	KeyBlacklistedKeys        = "sync-settings.blacklistedKeys"
	KeyRemoveObsoletePackages = "sync-settings.removeObsoletePackages"
	KeyQuietUpdateCheck       = "sync-settings.quietUpdateCheck"
	KeyCheckForUpdatedBackup  = "sync-settings.checkForUpdatedBackup"
	KeyWarnBackupConfig       = "sync-settings.warnBackupConfig"
	KeyGistDescription        = "sync-settings.gistDescription"
)

// Environment fallbacks for the gist id and token.
const (
	EnvGistID      = "GIST_ID"
	EnvGitHubToken = "GITHUB_TOKEN"
)

// DefaultGistDescription is used when no description is configured.
const DefaultGistDescription = "automatic update by http://atom.io/packages/sync-settings"

var defaultOptions = map[string]any{
	KeySyncSettings:           true,
	KeySyncPackages:           true,
	KeySyncKeymap:             true,
	KeySyncStyles:             true,
	KeySyncInit:               true,
	KeySyncSnippets:           true,
	KeyRemoveObsoletePackages: false,
	KeyQuietUpdateCheck:       false,
	KeyCheckForUpdatedBackup:  true,
	KeyWarnBackupConfig:       true,
	KeyGistDescription:        DefaultGistDescription,
}

// options reads the tool's settings from the live configuration on every
// call; nothing is cached.
type options struct {
	store    adapter.ConfigStore
	fallback func(name string) string
}

func newOptions(store adapter.ConfigStore, fallback func(name string) string) options {
	if fallback == nil {
		fallback = os.Getenv
	}

	return options{store: store, fallback: fallback}
}

func (o options) value(key string) (any, bool) {
	if value, ok := o.store.Get(key); ok && value != nil {
		return value, true
	}

	value, ok := defaultOptions[key]

	return value, ok
}

func (o options) flag(key string) bool {
	value, _ := o.value(key)
	flag, _ := value.(bool)

	return flag
}

func (o options) text(key string) string {
	value, _ := o.value(key)
	text, _ := value.(string)

	return text
}

func (o options) list(key string) []string {
	return stringList(o.store, key)
}

func stringList(store adapter.ConfigStore, key string) []string {
	value, ok := store.Get(key)
	if !ok {
		return nil
	}

	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if text, isText := item.(string); isText && text != "" {
				out = append(out, text)
			}
		}

		return out
	default:
		return nil
	}
}

// gistID resolves the gist id from the configuration, then the environment.
func (o options) gistID() string {
	id := o.text(KeyGistID)
	if id == "" {
		id = o.fallback(EnvGistID)
	}

	return strings.TrimSpace(id)
}

// token resolves the access token from the configuration, then the environment.
func (o options) token() string {
	token := o.text(KeyPersonalAccessToken)
	if token == "" {
		token = o.fallback(EnvGitHubToken)
	}

	return strings.TrimSpace(token)
}
