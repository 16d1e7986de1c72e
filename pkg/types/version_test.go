// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   Version
		errMsg string
	}{
		{name: "plain semver", in: "1.2.3", want: "1.2.3"},
		{name: "leading v stripped", in: "v0.4.11", want: "0.4.11"},
		{name: "surrounding whitespace", in: "  2.0.0\n", want: "2.0.0"},
		{name: "too few components", in: "1.2", errMsg: "want MAJOR.MINOR.PATCH"},
		{name: "too many components", in: "1.2.3.4", errMsg: "want MAJOR.MINOR.PATCH"},
		{name: "empty component", in: "1..3", errMsg: "empty component"},
		{name: "non-numeric component", in: "1.2.3-rc1", errMsg: "non-numeric"},
		{name: "empty string", in: "", errMsg: "want MAJOR.MINOR.PATCH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionTag(t *testing.T) {
	assert.Equal(t, "v1.2.3", Version("1.2.3").Tag())
}

func TestVersionFromCargoToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	manifest := `[package]
name = "batdoc"
version = "0.7.2"
edition = "2021"

[dependencies]
zip = "2"
`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	v, err := VersionFromCargoToml(path)
	require.NoError(t, err)
	assert.Equal(t, Version("0.7.2"), v)
}

func TestVersionFromCargoTomlErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := VersionFromCargoToml(filepath.Join(dir, "nope", "Cargo.toml"))
		require.Error(t, err)
	})

	t.Run("no version field", func(t *testing.T) {
		path := filepath.Join(dir, "Cargo.toml")
		require.NoError(t, os.WriteFile(path, []byte("[package]\nname = \"batdoc\"\n"), 0o644))
		_, err := VersionFromCargoToml(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no package.version")
	})
}

func TestArchesAndAlgorithmsAreFixed(t *testing.T) {
	assert.Equal(t, []Arch{ArchX8664, ArchAarch64}, Arches())
	assert.Equal(t, []Algorithm{SHA256, SHA512}, Algorithms())
}
