package domain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"settingsync.dev/pkg/settingsync/internal/adapter"
	"settingsync.dev/pkg/settingsync/internal/controller"
	m "settingsync.dev/pkg/settingsync/internal/model"
)

// GistPageURL is the human-facing page of a gist, by id.
const GistPageURL = "https://gist.github.com/%s"

// Labels of the mandatory settings, as reported to the user.
const (
	labelGistID = "Gist ID"
	labelToken  = "GitHub personal access token"
)

// riskyExtraFiles are host settings files that hold the access token when it
// is configured in plain text.
var riskyExtraFiles = []string{adapter.ConfigFileName, "config.cson"}

const warnBackupConfigDetail = "`config.yaml` contains your Personal Access Token\n" +
	"You can store it in the environment variable `GITHUB_TOKEN`\n\n" +
	"Do you want to back up this file anyway?"

// Orchestrator exposes the user-facing sync operations.
type Orchestrator interface {
	// CheckMandatory reports whether the gist id and token are configured,
	// notifying the user about whatever is missing.
	CheckMandatory(ctx context.Context) bool

	// CheckForUpdate compares the remote version stamp with the last one
	// applied or uploaded locally.
	CheckForUpdate(ctx context.Context, notifyIfUnchanged bool) error

	// Activate runs the startup checks.
	Activate(ctx context.Context) error

	Backup(ctx context.Context) error

	// ConfirmBackup turns off the config-file warning and backs up.
	ConfirmBackup(ctx context.Context) error

	Restore(ctx context.Context) error
	ViewBackup(ctx context.Context) error
	Fork(ctx context.Context, sourceID string) error

	// Diff prints what a backup would change in the remote document.
	Diff(ctx context.Context, w io.Writer) error

	// Packages lists the locally installed packages.
	Packages(ctx context.Context) ([]m.Package, error)
}

// Dependencies are the ports an orchestrator works through.
type Dependencies struct {
	Store          adapter.ConfigStore
	Files          adapter.EditorFSAdapter
	Registry       adapter.PackageRegistry
	PackageManager adapter.PackageManagerAdapter
	Opener         adapter.URLOpener
	Sink           controller.NotificationSink

	// NewGistClient builds a client for the given token.
	NewGistClient func(token string) adapter.GistClient

	// Fallback resolves environment variables; os.Getenv when nil.
	Fallback func(name string) string
}

type orchestrator struct {
	Dependencies

	opts       options
	codec      *SettingsCodec
	reconciler Reconciler

	busy atomic.Bool
}

// NewOrchestrator constructs an Orchestrator over deps.
func NewOrchestrator(deps Dependencies) Orchestrator {
	return &orchestrator{
		Dependencies: deps,
		opts:         newOptions(deps.Store, deps.Fallback),
		codec:        NewSettingsCodec(deps.Store),
		reconciler:   NewReconciler(deps.Registry, deps.PackageManager, deps.Sink),
	}
}

func (o *orchestrator) gateway() Gateway {
	token := o.opts.token()
	return NewGateway(o.NewGistClient(token), token)
}

// acquire marks a backup, restore or fork as running.
func (o *orchestrator) acquire() (func(), error) {
	if !o.busy.CompareAndSwap(false, true) {
		slog.Warn("sync operation rejected, another one is running")
		return nil, ErrBusy
	}

	return func() { o.busy.Store(false) }, nil
}

func (o *orchestrator) configPath() string {
	return filepath.Join(string(o.Files.ConfigDir()), adapter.ConfigFileName)
}

func (o *orchestrator) CheckMandatory(ctx context.Context) bool {
	var missing []string

	if o.opts.gistID() == "" {
		missing = append(missing, labelGistID)
	}

	if o.opts.token() == "" {
		missing = append(missing, labelToken)
	}

	if len(missing) > 0 {
		o.notifyMissing(ctx, missing...)
	}

	return len(missing) == 0
}

func (o *orchestrator) notifyMissing(ctx context.Context, labels ...string) {
	path := o.configPath()

	o.Sink.Error(ctx, "Mandatory settings missing: "+strings.Join(labels, ", "),
		controller.WithDismissable(),
		controller.WithButtons(controller.Button{
			Text: "Package settings",
			Hint: "edit " + path,
			OnClick: func(ctx context.Context) error {
				return o.Opener.Open(ctx, path)
			},
		}))
}

func (o *orchestrator) CheckForUpdate(ctx context.Context, notifyIfUnchanged bool) error {
	id := o.opts.gistID()
	if id == "" {
		o.notifyMissing(ctx, labelGistID)
		return ErrMissingMandatory
	}

	slog.Debug("checking latest backup", "id", id)

	doc, err := o.gateway().Fetch(ctx, id)
	if err != nil {
		slog.Error("error while retrieving the gist", "id", id, "error", err)
		o.Sink.Error(ctx, fmt.Sprintf("Error retrieving your settings. (%s)", TranslateError(err)))

		return fmt.Errorf("fetch gist: %w", err)
	}

	if doc.Version == "" {
		slog.Error("could not interpret gist without history", "id", id)
		o.Sink.Error(ctx, "Error retrieving your settings.")

		return errInvalidDocument("missing version history")
	}

	slog.Debug("latest backup version", "version", doc.Version)

	if doc.Version != o.opts.text(KeyLastBackupHash) {
		o.notifyNewerBackup(ctx)
	} else if notifyIfUnchanged || !o.opts.flag(KeyQuietUpdateCheck) {
		o.Sink.Success(ctx, "Latest backup is already applied.")
	}

	return nil
}

func (o *orchestrator) notifyNewerBackup(ctx context.Context) {
	var notification controller.Notification

	dismissAfter := func(action func(context.Context) error) func(context.Context) error {
		return func(ctx context.Context) error {
			err := action(ctx)
			if notification != nil {
				notification.Dismiss()
			}

			return err
		}
	}

	notification = o.Sink.Warning(ctx, "Your settings are out of date.",
		controller.WithDismissable(),
		controller.WithButtons(
			controller.Button{Text: "Backup", Hint: "settingsync backup", OnClick: dismissAfter(o.Backup)},
			controller.Button{Text: "View backup", Hint: "settingsync view-backup", OnClick: o.ViewBackup},
			controller.Button{Text: "Restore", Hint: "settingsync restore", OnClick: dismissAfter(o.Restore)},
			controller.Button{Text: "Dismiss", OnClick: dismissAfter(func(context.Context) error { return nil })},
		))
}

func (o *orchestrator) Activate(ctx context.Context) error {
	if !o.CheckMandatory(ctx) {
		return ErrMissingMandatory
	}

	if !o.opts.flag(KeyCheckForUpdatedBackup) {
		return nil
	}

	return o.CheckForUpdate(ctx, false)
}

// shouldWarnBackupConfig reports whether the extra files would upload a host
// config file holding the token in plain text.
func (o *orchestrator) shouldWarnBackupConfig() bool {
	token, _ := o.Store.Get(KeyPersonalAccessToken)
	if text, _ := token.(string); text == "" {
		return false
	}

	if !o.opts.flag(KeyWarnBackupConfig) {
		return false
	}

	for _, file := range o.opts.list(KeyExtraFiles) {
		if slices.Contains(riskyExtraFiles, file) {
			return true
		}
	}

	return false
}

func (o *orchestrator) Backup(ctx context.Context) error {
	if !o.CheckMandatory(ctx) {
		return ErrMissingMandatory
	}

	if o.shouldWarnBackupConfig() {
		o.Sink.Warning(ctx, "Backing up `config.yaml` is risky.",
			controller.WithDetail(warnBackupConfigDetail),
			controller.WithDismissable(),
			controller.WithButtons(controller.Button{
				Text:    "Backup Anyway",
				Hint:    "settingsync backup --force",
				OnClick: o.ConfirmBackup,
			}))

		return nil
	}

	release, err := o.acquire()
	if err != nil {
		return err
	}
	defer release()

	files, err := o.backupFiles(ctx)
	if err != nil {
		o.Sink.Error(ctx, fmt.Sprintf("Error backing up your settings. (%v)", err))
		return fmt.Errorf("assemble backup: %w", err)
	}

	id := o.opts.gistID()
	slog.Debug("updating gist", "id", id)

	doc, err := o.gateway().Update(ctx, id, o.opts.text(KeyGistDescription), files)
	if err == nil && doc.Version == "" {
		err = errInvalidDocument("missing version history")
	}

	if err != nil {
		slog.Error("error backing up data", "id", id, "error", err)
		o.Sink.Error(ctx, fmt.Sprintf("Error backing up your settings. (%s)", TranslateError(err)))

		return fmt.Errorf("update gist: %w", err)
	}

	if err := o.Store.Set(KeyLastBackupHash, doc.Version); err != nil {
		return fmt.Errorf("save backup version: %w", err)
	}

	o.Sink.Success(ctx, "Your settings were successfully backed up.", controller.WithDetail(doc.URL))

	return nil
}

func (o *orchestrator) ConfirmBackup(ctx context.Context) error {
	if err := o.Store.Set(KeyWarnBackupConfig, false); err != nil {
		return fmt.Errorf("disable config backup warning: %w", err)
	}

	return o.Backup(ctx)
}

// backupFiles assembles the documents a backup uploads, keyed by filename.
// Missing or blank files are replaced by a commented placeholder.
func (o *orchestrator) backupFiles(ctx context.Context) (map[string]string, error) {
	files := map[string]string{}

	if o.opts.flag(KeySyncSettings) {
		content, err := o.codec.Capture()
		if err != nil {
			return nil, err
		}

		files[m.SettingsFile] = content
	}

	if o.opts.flag(KeySyncPackages) {
		packages, err := Inventory(ctx, o.Registry)
		if err != nil {
			return nil, err
		}

		content, err := EncodeManifest(packages)
		if err != nil {
			return nil, err
		}

		files[m.PackagesFile] = content
	}

	if o.opts.flag(KeySyncKeymap) {
		files[m.KeymapFile] = o.fileContent(ctx, o.Files.KeymapPath(), "# keymap file (not found)")
	}

	if o.opts.flag(KeySyncStyles) {
		files[m.StylesFile] = o.fileContent(ctx, o.Files.StylesPath(), "// styles file (not found)")
	}

	if o.opts.flag(KeySyncInit) {
		path := o.Files.InitScriptPath()
		files[filepath.Base(string(path))] = o.fileContent(ctx, path, "# initialization file (not found)")
	}

	if o.opts.flag(KeySyncSnippets) {
		files[m.SnippetsFile] = o.fileContent(ctx, o.Files.SnippetsPath(), "# snippets file (not found)")
	}

	for _, file := range o.opts.list(KeyExtraFiles) {
		files[file] = o.fileContent(ctx, o.configDirFile(file), placeholder(file))
	}

	return files, nil
}

func (o *orchestrator) fileContent(ctx context.Context, path m.Path, fallback string) string {
	content, err := o.Files.ReadFile(ctx, path)
	if err != nil {
		slog.Debug("error reading file, probably missing", "path", path, "error", err)
		return fallback
	}

	if strings.TrimSpace(string(content)) == "" {
		return fallback
	}

	return string(content)
}

func (o *orchestrator) configDirFile(name string) m.Path {
	return m.Path(filepath.Join(string(o.Files.ConfigDir()), name))
}

// placeholder is a comment line in the syntax suggested by the extension.
func placeholder(file string) string {
	start, end := "#", ""

	switch strings.ToLower(filepath.Ext(file)) {
	case ".less", ".scss", ".js":
		start = "//"
	case ".css":
		start, end = "/*", "*/"
	}

	return fmt.Sprintf("%s %s (not found) %s", start, file, end)
}

func (o *orchestrator) Restore(ctx context.Context) error {
	if !o.CheckMandatory(ctx) {
		return ErrMissingMandatory
	}

	release, err := o.acquire()
	if err != nil {
		return err
	}
	defer release()

	id := o.opts.gistID()

	doc, err := o.gateway().Fetch(ctx, id)
	if err == nil && doc.Version == "" {
		err = errInvalidDocument("missing version history")
	}

	if err != nil {
		return o.restoreFailed(ctx, "fetch gist", err)
	}

	names := make([]string, 0, len(doc.Files))
	for name := range doc.Files {
		names = append(names, name)
	}

	sort.Strings(names)

	snapshot, manifest, err := o.validate(ctx, doc, names)
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := o.restoreFile(ctx, name, doc.Files[name], snapshot, manifest); err != nil {
			return o.restoreFailed(ctx, "restore "+name, err)
		}
	}

	if err := o.Store.Set(KeyLastBackupHash, doc.Version); err != nil {
		return o.restoreFailed(ctx, "save backup version", err)
	}

	o.Sink.Success(ctx, "Your settings were successfully synchronized.")

	return nil
}

func (o *orchestrator) restoreFailed(ctx context.Context, action string, err error) error {
	slog.Error("error while restoring settings", "action", action, "error", err)
	o.Sink.Error(ctx, fmt.Sprintf("Error retrieving your settings. (%s)", TranslateError(err)))

	return fmt.Errorf("%s: %w", action, err)
}

// validate parses the structured files up front so a malformed one aborts the
// restore before anything is written.
func (o *orchestrator) validate(ctx context.Context, doc m.Document, names []string) (Snapshot, []m.Package, error) {
	var (
		snapshot Snapshot
		manifest []m.Package
	)

	for _, name := range names {
		var err error

		switch name {
		case m.SettingsFile:
			snapshot, err = ParseSnapshot(doc.Files[name])
		case m.PackagesFile:
			manifest, err = ParseManifest(doc.Files[name])
		default:
			continue
		}

		if err != nil {
			o.Sink.Error(ctx, fmt.Sprintf("Error parsing the fetched JSON file '%s'. (%v)", name, err))
			return nil, nil, &ParseError{Filename: name, Err: err}
		}
	}

	return snapshot, manifest, nil
}

func (o *orchestrator) restoreFile(ctx context.Context, name, content string, snapshot Snapshot, manifest []m.Package) error {
	switch name {
	case m.SettingsFile:
		if o.opts.flag(KeySyncSettings) {
			return o.codec.Apply(snapshot)
		}
	case m.PackagesFile:
		if o.opts.flag(KeySyncPackages) {
			return o.syncPackages(ctx, manifest)
		}
	case m.KeymapFile:
		if o.opts.flag(KeySyncKeymap) {
			return o.Files.WriteFile(ctx, o.Files.KeymapPath(), []byte(content))
		}
	case m.StylesFile:
		if o.opts.flag(KeySyncStyles) {
			return o.Files.WriteFile(ctx, o.Files.StylesPath(), []byte(content))
		}
	case m.InitCoffeeFile, m.InitJSFile:
		if o.opts.flag(KeySyncInit) {
			return o.Files.WriteFile(ctx, o.configDirFile(name), []byte(content))
		}
	case m.SnippetsFile:
		if o.opts.flag(KeySyncSnippets) {
			return o.Files.WriteFile(ctx, o.Files.SnippetsPath(), []byte(content))
		}
	default:
		if !isPlainFileName(name) {
			slog.Warn("skipping remote file with unsafe name", "name", name)
			return nil
		}

		path := o.configDirFile(name)
		if err := o.Files.WriteFile(ctx, path, []byte(content)); err != nil {
			return err
		}

		return o.reloadStore(path)
	}

	return nil
}

// reloadStore re-reads the live configuration when path is its backing file,
// so later writes through the store keep the restored content. Deny-listed
// keys keep their local values.
func (o *orchestrator) reloadStore(path m.Path) error {
	store, ok := o.Store.(adapter.FileConfigStore)
	if !ok || filepath.Clean(string(store.Path())) != filepath.Clean(string(path)) {
		return nil
	}

	keys := DenyList(o.Store)
	kept := make(map[string]any, len(keys))

	for _, key := range keys {
		if value, ok := o.Store.Get(key); ok && value != nil {
			kept[key] = value
		}
	}

	slog.Info("reloading restored configuration file", "path", path)

	if err := store.Reload(); err != nil {
		return fmt.Errorf("reload configuration: %w", err)
	}

	for _, key := range keys {
		value, ok := kept[key]
		if !ok {
			continue
		}

		if err := o.Store.Set(key, value); err != nil {
			return fmt.Errorf("keep local %s: %w", key, err)
		}
	}

	return nil
}

func (o *orchestrator) syncPackages(ctx context.Context, manifest []m.Package) error {
	if _, err := o.reconciler.InstallMissing(ctx, manifest); err != nil {
		return err
	}

	if !o.opts.flag(KeyRemoveObsoletePackages) {
		return nil
	}

	_, err := o.reconciler.RemoveObsolete(ctx, manifest)

	return err
}

// isPlainFileName rejects names that would escape the config directory.
func isPlainFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, `/\`)
}

func (o *orchestrator) ViewBackup(ctx context.Context) error {
	id := o.opts.gistID()
	if id == "" {
		o.notifyMissing(ctx, labelGistID)
		return ErrMissingMandatory
	}

	url := fmt.Sprintf(GistPageURL, id)
	if err := o.Opener.Open(ctx, url); err != nil {
		o.Sink.Error(ctx, fmt.Sprintf("Could not open %s", url), controller.WithDetail(err.Error()))
		return fmt.Errorf("open %s: %w", url, err)
	}

	return nil
}

func (o *orchestrator) Fork(ctx context.Context, sourceID string) error {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		o.Sink.Error(ctx, "Error forking settings. (no Gist ID given)")
		return fmt.Errorf("fork: %w", ErrMissingMandatory)
	}

	if o.opts.token() == "" {
		o.notifyMissing(ctx, labelToken)
		return ErrMissingMandatory
	}

	release, err := o.acquire()
	if err != nil {
		return err
	}
	defer release()

	doc, err := o.gateway().Fork(ctx, sourceID)
	if err != nil {
		slog.Error("error forking gist", "id", sourceID, "error", err)
		o.Sink.Error(ctx, fmt.Sprintf("Error forking settings. (%s)", TranslateError(err)))

		return fmt.Errorf("fork gist: %w", err)
	}

	if doc.ID == "" {
		o.Sink.Error(ctx, "Error forking settings.")
		return errInvalidDocument("missing id")
	}

	if err := o.Store.Set(KeyGistID, doc.ID); err != nil {
		return fmt.Errorf("save gist id: %w", err)
	}

	o.Sink.Success(ctx, fmt.Sprintf("Forked successfully to the new Gist ID %s which has been saved to your config.", doc.ID))

	return nil
}

func (o *orchestrator) Packages(ctx context.Context) ([]m.Package, error) {
	return Inventory(ctx, o.Registry)
}
