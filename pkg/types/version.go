// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the release pipeline:
// versions, artifacts, per-target and per-repo outcomes, and configuration.
package types

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Version is a resolved semantic version ("1.2.3"). It is immutable for the
// duration of a run; both the build and publish stages derive everything
// (tags, URLs, filenames) from it.
type Version string

// ParseVersion validates s as a plain MAJOR.MINOR.PATCH semantic version.
// A leading "v" is accepted and stripped.
func ParseVersion(s string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.Split(trimmed, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid version %q: want MAJOR.MINOR.PATCH", s)
	}
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("invalid version %q: empty component", s)
		}
		if _, err := strconv.Atoi(p); err != nil {
			return "", fmt.Errorf("invalid version %q: non-numeric component %q", s, p)
		}
	}
	return Version(trimmed), nil
}

// Tag returns the release tag form, "v" + version.
func (v Version) Tag() string {
	return "v" + string(v)
}

func (v Version) String() string {
	return string(v)
}

// cargoManifest is the subset of a Cargo.toml we read for version discovery.
type cargoManifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
}

// VersionFromCargoToml reads the package version from the application's
// Cargo.toml. Used when no explicit --version flag is given.
func VersionFromCargoToml(path string) (Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading project metadata: %w", err)
	}

	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Package.Version == "" {
		return "", fmt.Errorf("%s: no package.version field", path)
	}

	return ParseVersion(m.Package.Version)
}
