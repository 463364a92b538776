package model

import (
	"encoding/json"
	"fmt"
)

// InstallSource records where a package was installed from when it did not come
// from the package registry (e.g. a git URL).
type InstallSource struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// UnmarshalJSON accepts both the object form {"type": ..., "source": ...} and a
// bare string, which is taken as the source.
func (s *InstallSource) UnmarshalJSON(data []byte) error {
	var source string
	if err := json.Unmarshal(data, &source); err == nil {
		*s = InstallSource{Type: "git", Source: source}
		return nil
	}

	type plain InstallSource

	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid install source: %w", err)
	}

	*s = InstallSource(obj)

	return nil
}

// Package describes one installed (or desired) editor extension.
type Package struct {
	Name          string         `json:"name"`
	Version       string         `json:"version,omitempty"`
	Theme         bool           `json:"theme,omitempty"`
	InstallSource *InstallSource `json:"apmInstallSource,omitempty"`
}

// UnmarshalJSON tolerates the editor's own metadata shape, where "theme" is the
// theme kind ("ui", "syntax") instead of a boolean.
func (p *Package) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          string          `json:"name"`
		Version       string          `json:"version"`
		Theme         json.RawMessage `json:"theme"`
		InstallSource *InstallSource  `json:"apmInstallSource"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	theme, err := parseTheme(raw.Theme)
	if err != nil {
		return fmt.Errorf("package %q: %w", raw.Name, err)
	}

	*p = Package{
		Name:          raw.Name,
		Version:       raw.Version,
		Theme:         theme,
		InstallSource: raw.InstallSource,
	}

	return nil
}

func parseTheme(data json.RawMessage) (bool, error) {
	if len(data) == 0 || string(data) == "null" {
		return false, nil
	}

	var flag bool
	if err := json.Unmarshal(data, &flag); err == nil {
		return flag, nil
	}

	var kind string
	if err := json.Unmarshal(data, &kind); err != nil {
		return false, fmt.Errorf("invalid theme value %s", string(data))
	}

	return kind != "", nil
}

// Kind returns "theme" or "package", used in log lines.
func (p Package) Kind() string {
	if p.Theme {
		return "theme"
	}

	return "package"
}

// SameVariant reports whether p and other denote the same install variant: same
// name and the same presence of an install source. A dev install and a
// registry install of one name are different variants.
func (p Package) SameVariant(other Package) bool {
	return p.Name == other.Name && (p.InstallSource != nil) == (other.InstallSource != nil)
}
