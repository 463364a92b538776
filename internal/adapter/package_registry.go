package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	m "settingsync.dev/pkg/settingsync/internal/model"
)

// PackageEntry is one registration of an installed package. Two entries may
// point at the same real directory (e.g. a symlinked dev package).
type PackageEntry struct {
	Path     m.Path
	RealPath m.Path
	Metadata m.Package
}

// PackageRegistry lists the packages present on disk.
type PackageRegistry interface {
	// AvailablePackages returns every registration found, in lookup order.
	AvailablePackages(ctx context.Context) ([]PackageEntry, error)
}

// LocalPackageRegistry scans package directories for package.json manifests.
// Directories are searched in order; earlier ones win name lookups.
type LocalPackageRegistry struct {
	dirs []m.Path
}

// NewLocalPackageRegistry scans <configDir>/dev/packages and <configDir>/packages.
func NewLocalPackageRegistry(configDir m.Path) *LocalPackageRegistry {
	return &LocalPackageRegistry{
		dirs: []m.Path{
			m.Path(filepath.Join(string(configDir), "dev", "packages")),
			m.Path(filepath.Join(string(configDir), "packages")),
		},
	}
}

// AvailablePackages implements PackageRegistry.
func (r *LocalPackageRegistry) AvailablePackages(ctx context.Context) ([]PackageEntry, error) {
	var entries []PackageEntry

	for _, dir := range r.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := r.scanDir(dir)
		if err != nil {
			return nil, err
		}

		entries = append(entries, found...)
	}

	return entries, nil
}

func (r *LocalPackageRegistry) scanDir(dir m.Path) ([]PackageEntry, error) {
	children, err := os.ReadDir(string(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list packages in %s: %w", dir, err)
	}

	entries := make([]PackageEntry, 0, len(children))

	for _, child := range children {
		pkgPath := filepath.Join(string(dir), child.Name())

		realPath, err := filepath.EvalSymlinks(pkgPath)
		if err != nil {
			slog.Warn("skipping unresolvable package path", "path", pkgPath, "error", err)
			continue
		}

		info, err := os.Stat(realPath)
		if err != nil || !info.IsDir() {
			continue
		}

		metadata, err := readPackageMetadata(realPath)
		if err != nil {
			slog.Warn("skipping package without readable metadata", "path", pkgPath, "error", err)
			continue
		}

		if metadata.Name == "" {
			metadata.Name = child.Name()
		}

		entries = append(entries, PackageEntry{
			Path:     m.Path(pkgPath),
			RealPath: m.Path(realPath),
			Metadata: metadata,
		})
	}

	return entries, nil
}

func readPackageMetadata(dir string) (m.Package, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return m.Package{}, err
	}

	var metadata m.Package
	if err := json.Unmarshal(data, &metadata); err != nil {
		return m.Package{}, fmt.Errorf("invalid package.json: %w", err)
	}

	return metadata, nil
}
