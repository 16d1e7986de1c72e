// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package target

import (
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpetta/batdoc-release/pkg/types"
)

const testVersion = types.Version("1.2.3")

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		wantIDs []string
		errMsg  string
	}{
		{
			name:    "empty selects all four",
			ids:     nil,
			wantIDs: []string{"debian", "rpm", "alpine", "arch"},
		},
		{
			name:    "subset preserves order",
			ids:     []string{"arch", "debian"},
			wantIDs: []string{"arch", "debian"},
		},
		{
			name:   "unknown target rejected",
			ids:    []string{"gentoo"},
			errMsg: "unknown target",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets, err := Select(tt.ids)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			got := make([]string, len(targets))
			for i, tgt := range targets {
				got[i] = tgt.ID()
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestMetadataSchemas(t *testing.T) {
	tests := []struct {
		name     string
		target   Target
		wantPath string
		contains []string
	}{
		{
			name:     "debian control uses debian arch names",
			target:   &Debian{},
			wantPath: "/work/control",
			contains: []string{
				"Package: batdoc",
				"Version: 1.2.3-1",
				"Architecture: amd64",
				"Maintainer: Damon Petta",
			},
		},
		{
			name:     "rpm spec",
			target:   &RPM{},
			wantPath: "/work/batdoc.spec",
			contains: []string{
				"Name:           batdoc",
				"Version:        1.2.3",
				"Release:        1",
				"License:        MIT",
				"%files",
			},
		},
		{
			name:     "alpine apkbuild",
			target:   &Alpine{},
			wantPath: "/work/apkbuild/APKBUILD",
			contains: []string{
				"pkgname=batdoc",
				"pkgver=1.2.3",
				"pkgrel=1",
				`arch="x86_64"`,
				"cargo build --release --locked",
			},
		},
		{
			name:     "arch pkgbuild",
			target:   &ArchLinux{},
			wantPath: "/work/pkgbuild/PKGBUILD",
			contains: []string{
				"pkgname=batdoc",
				"pkgver=1.2.3",
				"arch=('x86_64')",
				"makepkg",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, content := tt.target.Metadata(testVersion, types.ArchX8664)
			assert.Equal(t, tt.wantPath, path)
			for _, want := range tt.contains {
				if want == "makepkg" {
					// makepkg is invoked by the build commands, not the recipe.
					joined := strings.Join(tt.target.BuildCommands(testVersion, types.ArchX8664), "\n")
					assert.Contains(t, joined, want)
					continue
				}
				assert.Contains(t, content, want)
			}
		})
	}
}

func TestArtifactNamingConvention(t *testing.T) {
	tests := []struct {
		target Target
		arch   types.Arch
		want   string
	}{
		{&Debian{}, types.ArchX8664, "batdoc_1.2.3-1_amd64.deb"},
		{&Debian{}, types.ArchAarch64, "batdoc_1.2.3-1_arm64.deb"},
		{&RPM{}, types.ArchX8664, "batdoc_1.2.3-1_x86_64.rpm"},
		{&Alpine{}, types.ArchX8664, "batdoc_1.2.3-1_x86_64.apk"},
		{&ArchLinux{}, types.ArchX8664, "batdoc_1.2.3-1_x86_64.pkg.tar.zst"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.target.ArtifactName(testVersion, tt.arch))
			assert.Equal(t, "/work/"+tt.want, tt.target.ArtifactPath(testVersion, tt.arch))
		})
	}
}

func TestProvisionPreparesMetadataDirectory(t *testing.T) {
	// The runtime's copy-in does not create parent directories, so the
	// directory holding each target's recipe must exist after provisioning
	// and be owned by the build user (abuild checksum rewrites the APKBUILD
	// in place).
	for _, tgt := range All() {
		envPath, _ := tgt.Metadata(testVersion, types.ArchX8664)
		dir := path.Dir(envPath)
		prov := strings.Join(tgt.Provision(), "\n")

		assert.Contains(t, prov, "mkdir -p "+dir, "%s: %s never created", tgt.ID(), dir)
		assert.Contains(t, prov, "chown -R "+BuilderUser, "%s: /work not handed to the build user", tgt.ID())
	}
}

func TestToolchainReachableByBuildUser(t *testing.T) {
	// Targets that pin the toolchain via rustup must install it somewhere
	// the unprivileged build user can traverse; /root is mode 0700.
	for _, tgt := range All() {
		prov := strings.Join(tgt.Provision(), "\n")
		build := strings.Join(tgt.BuildCommands(testVersion, types.ArchX8664), "\n")

		assert.NotContains(t, build, "/root/", "%s: build phase reaches into /root", tgt.ID())
		if strings.Contains(prov, "rustup") {
			assert.Contains(t, prov, "RUSTUP_HOME=/opt/rust", tgt.ID())
			assert.Contains(t, prov, "chmod -R a+rX /opt/rust", tgt.ID())
			assert.Contains(t, build, "PATH=/opt/rust/bin:$PATH", tgt.ID())
		}
	}
}

func TestUnprivilegedPackagingTools(t *testing.T) {
	// abuild and makepkg refuse root; their invocations must be in the
	// unprivileged build phase, never in provisioning.
	for _, tgt := range []Target{&Alpine{}, &ArchLinux{}} {
		prov := strings.Join(tgt.Provision(), "\n")
		assert.NotContains(t, prov, "abuild -r")
		assert.NotContains(t, prov, "makepkg")

		build := strings.Join(tgt.BuildCommands(testVersion, types.ArchX8664), "\n")
		if tgt.ID() == "alpine" {
			assert.Contains(t, build, "abuild -r")
		} else {
			assert.Contains(t, build, "makepkg")
		}
	}
}
