package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	m "settingsync.dev/pkg/settingsync/internal/model"
)

// PackageManagerAdapter installs and removes editor packages.
type PackageManagerAdapter interface {
	Install(ctx context.Context, pkg m.Package) error
	Uninstall(ctx context.Context, pkg m.Package) error
}

// LocalPackageManagerAdapter shells out to an apm-compatible executable.
type LocalPackageManagerAdapter struct {
	command string
	timeout time.Duration
}

// DefaultPackageManagerTimeout bounds a single install or uninstall.
const DefaultPackageManagerTimeout = 5 * time.Minute

// NewLocalPackageManagerAdapter constructs an adapter running command. A zero
// timeout falls back to DefaultPackageManagerTimeout.
func NewLocalPackageManagerAdapter(command string, timeout time.Duration) *LocalPackageManagerAdapter {
	if timeout <= 0 {
		timeout = DefaultPackageManagerTimeout
	}

	return &LocalPackageManagerAdapter{
		command: command,
		timeout: timeout,
	}
}

// Install implements PackageManagerAdapter.
func (a *LocalPackageManagerAdapter) Install(ctx context.Context, pkg m.Package) error {
	return a.run(ctx, installArgs(pkg))
}

// Uninstall implements PackageManagerAdapter.
func (a *LocalPackageManagerAdapter) Uninstall(ctx context.Context, pkg m.Package) error {
	return a.run(ctx, []string{"uninstall", pkg.Name})
}

func installArgs(pkg m.Package) []string {
	if pkg.InstallSource != nil && pkg.InstallSource.Source != "" {
		return []string{"install", pkg.InstallSource.Source}
	}

	if pkg.Version != "" {
		return []string{"install", pkg.Name + "@" + pkg.Version}
	}

	return []string{"install", pkg.Name}
}

func (a *LocalPackageManagerAdapter) run(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.command, args...)

	var output bytes.Buffer

	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", a.command, strings.Join(args, " "), err, strings.TrimSpace(output.String()))
	}

	return nil
}
