package domain_test

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"settingsync.dev/pkg/settingsync/internal/adapter"
	adaptermocks "settingsync.dev/pkg/settingsync/internal/adapter/mocks"
	"settingsync.dev/pkg/settingsync/internal/controller"
	"settingsync.dev/pkg/settingsync/internal/domain"
	m "settingsync.dev/pkg/settingsync/internal/model"
)

// recordingSink keeps every notice it is given.
type recordingSink struct {
	mu        sync.Mutex
	notices   []controller.Notice
	dismissed int
}

type recordedNotification struct {
	sink *recordingSink
}

func (n recordedNotification) Dismiss() {
	n.sink.mu.Lock()
	defer n.sink.mu.Unlock()

	n.sink.dismissed++
}

func (s *recordingSink) record(level controller.Level, message string, options []controller.NoticeOption) controller.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notices = append(s.notices, controller.NewNotice(level, message, options...))

	return recordedNotification{sink: s}
}

func (s *recordingSink) Info(_ context.Context, message string, options ...controller.NoticeOption) controller.Notification {
	return s.record(controller.LevelInfo, message, options)
}

func (s *recordingSink) Success(_ context.Context, message string, options ...controller.NoticeOption) controller.Notification {
	return s.record(controller.LevelSuccess, message, options)
}

func (s *recordingSink) Warning(_ context.Context, message string, options ...controller.NoticeOption) controller.Notification {
	return s.record(controller.LevelWarning, message, options)
}

func (s *recordingSink) Error(_ context.Context, message string, options ...controller.NoticeOption) controller.Notification {
	return s.record(controller.LevelError, message, options)
}

func (s *recordingSink) messages(level controller.Level) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string

	for _, notice := range s.notices {
		if notice.Level == level {
			out = append(out, notice.Message)
		}
	}

	return out
}

func (s *recordingSink) last() controller.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.notices) == 0 {
		return controller.Notice{}
	}

	return s.notices[len(s.notices)-1]
}

// fakeRegistry serves a fixed list of entries.
type fakeRegistry struct {
	mu      sync.Mutex
	entries []adapter.PackageEntry
}

func (r *fakeRegistry) AvailablePackages(context.Context) ([]adapter.PackageEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]adapter.PackageEntry(nil), r.entries...), nil
}

func registryOf(packages ...m.Package) *fakeRegistry {
	registry := &fakeRegistry{}
	for _, p := range packages {
		path := m.Path(filepath.Join("/packages", p.Name))
		registry.entries = append(registry.entries, adapter.PackageEntry{Path: path, RealPath: path, Metadata: p})
	}

	return registry
}

// fakePackageManager records calls and the peak number running at once.
type fakePackageManager struct {
	mu          sync.Mutex
	installed   []string
	uninstalled []string
	fail        map[string]bool

	running atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
}

func (f *fakePackageManager) enter() {
	current := f.running.Add(1)
	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
}

func (f *fakePackageManager) leave() {
	f.running.Add(-1)
}

func (f *fakePackageManager) Install(_ context.Context, pkg m.Package) error {
	f.enter()
	defer f.leave()

	if f.fail[pkg.Name] {
		return packageError(pkg.Name)
	}

	f.mu.Lock()
	f.installed = append(f.installed, pkg.Name)
	f.mu.Unlock()

	return nil
}

func (f *fakePackageManager) Uninstall(_ context.Context, pkg m.Package) error {
	f.enter()
	defer f.leave()

	if f.fail[pkg.Name] {
		return packageError(pkg.Name)
	}

	f.mu.Lock()
	f.uninstalled = append(f.uninstalled, pkg.Name)
	f.mu.Unlock()

	return nil
}

type packageError string

func (e packageError) Error() string {
	return "package manager failed for " + string(e)
}

// fixture is an orchestrator over an in-memory store and a temp config dir.
type fixture struct {
	store    *adapter.MemoryConfigStore
	files    *adapter.LocalEditorFSAdapter
	registry *fakeRegistry
	manager  *fakePackageManager
	client   *adaptermocks.MockGistClient
	opener   *adaptermocks.MockURLOpener
	sink     *recordingSink
	env      map[string]string
	orch     domain.Orchestrator
}

func newFixture(t *testing.T, settings m.Tree) *fixture {
	t.Helper()

	f := &fixture{
		store:    adapter.NewMemoryConfigStore(settings),
		files:    adapter.NewLocalEditorFSAdapter(m.Path(t.TempDir())),
		registry: &fakeRegistry{},
		manager:  &fakePackageManager{},
		client:   adaptermocks.NewMockGistClient(t),
		opener:   adaptermocks.NewMockURLOpener(t),
		sink:     &recordingSink{},
		env:      map[string]string{},
	}

	f.orch = domain.NewOrchestrator(domain.Dependencies{
		Store:          f.store,
		Files:          f.files,
		Registry:       f.registry,
		PackageManager: f.manager,
		Opener:         f.opener,
		Sink:           f.sink,
		NewGistClient: func(string) adapter.GistClient {
			return f.client
		},
		Fallback: func(name string) string {
			return f.env[name]
		},
	})

	return f
}

// configured returns settings with the gist id and token set.
func configured(extra m.Tree) m.Tree {
	syncSettings := m.Tree{
		"gistId":              "abc123",
		"personalAccessToken": "ghp_0123456789abcdef",
	}

	for key, value := range extra {
		syncSettings[key] = value
	}

	return m.Tree{"sync-settings": syncSettings}
}

func gist(version string, files map[string]string) *adapter.Gist {
	g := &adapter.Gist{
		ID:      "abc123",
		Files:   map[string]adapter.GistFile{},
		HTMLURL: "https://gist.github.com/abc123",
	}

	if version != "" {
		g.History = []adapter.GistCommit{{Version: version}}
	}

	for name, content := range files {
		g.Files[name] = adapter.GistFile{Content: content}
	}

	return g
}
