package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"settingsync.dev/pkg/settingsync/internal/adapter"
	m "settingsync.dev/pkg/settingsync/internal/model"
)

// Inventory lists the locally present packages, one per real install path
// and name, sorted by name. When two registrations share a real path, the
// metadata read last describes it.
func Inventory(ctx context.Context, registry adapter.PackageRegistry) ([]m.Package, error) {
	entries, err := registry.AvailablePackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	metadataByPath := make(map[m.Path]m.Package, len(entries))
	pathByName := make(map[string]m.Path, len(entries))
	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		metadataByPath[entry.RealPath] = entry.Metadata

		name := entry.Metadata.Name
		if _, seen := pathByName[name]; seen {
			continue
		}

		pathByName[name] = entry.RealPath
		names = append(names, name)
	}

	seenPaths := make(map[m.Path]bool, len(names))
	packages := make([]m.Package, 0, len(names))

	for _, name := range names {
		realPath := pathByName[name]
		if seenPaths[realPath] {
			continue
		}

		seenPaths[realPath] = true
		metadata := metadataByPath[realPath]

		packages = append(packages, m.Package{
			Name:          metadata.Name,
			Version:       metadata.Version,
			Theme:         metadata.Theme,
			InstallSource: metadata.InstallSource,
		})
	}

	sort.SliceStable(packages, func(i, j int) bool {
		return packages[i].Name < packages[j].Name
	})

	return packages, nil
}

// InstallWorkSet returns the manifest entries with no installed package of the
// same install variant.
func InstallWorkSet(inventory, manifest []m.Package) []m.Package {
	installed := make(map[string]m.Package, len(inventory))
	for _, p := range inventory {
		if _, ok := installed[p.Name]; !ok {
			installed[p.Name] = p
		}
	}

	var work []m.Package

	for _, p := range manifest {
		current, ok := installed[p.Name]
		if !ok || !current.SameVariant(p) {
			work = append(work, p)
		}
	}

	return work
}

// RemoveWorkSet returns the installed packages whose name is absent from the
// manifest. The install source does not matter here.
func RemoveWorkSet(inventory, manifest []m.Package) []m.Package {
	wanted := make(map[string]bool, len(manifest))
	for _, p := range manifest {
		wanted[p.Name] = true
	}

	var work []m.Package

	for _, p := range inventory {
		if !wanted[p.Name] {
			work = append(work, p)
		}
	}

	return work
}

// ParseManifest decodes packages.json content. The document must be a list
// and every entry must name its package.
func ParseManifest(content string) ([]m.Package, error) {
	var packages []m.Package
	if err := json.Unmarshal([]byte(content), &packages); err != nil {
		return nil, err
	}

	if packages == nil {
		return nil, errors.New("package list is null")
	}

	for i, p := range packages {
		if p.Name == "" {
			return nil, fmt.Errorf("package entry %d has no name", i)
		}
	}

	return packages, nil
}

// EncodeManifest serializes packages as packages.json content.
func EncodeManifest(packages []m.Package) (string, error) {
	if packages == nil {
		packages = []m.Package{}
	}

	return encodeJSON(packages)
}
