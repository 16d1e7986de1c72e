// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package target

import (
	"fmt"

	"github.com/dpetta/batdoc-release/pkg/types"
)

// ArchLinux builds a .pkg.tar.zst with makepkg. Like abuild, makepkg refuses
// to run as root, so packaging runs as the unprivileged build user.
type ArchLinux struct{}

func (a *ArchLinux) ID() string    { return "arch" }
func (a *ArchLinux) Image() string { return "archlinux:base-devel" }

func (a *ArchLinux) archString(arch types.Arch) string {
	return string(arch)
}

func (a *ArchLinux) Provision() []string {
	return []string{
		"pacman -Syu --noconfirm rust",
		"useradd --create-home " + BuilderUser,
		"mkdir -p /work/pkgbuild && chown -R " + BuilderUser + " /work",
	}
}

func (a *ArchLinux) Metadata(v types.Version, arch types.Arch) (string, string) {
	content := fmt.Sprintf(`# Maintainer: %s
pkgname=%s
pkgver=%s
pkgrel=%s
pkgdesc="%s"
arch=('%s')
url="%s"
license=('%s')
makedepends=('rust')

build() {
	cp -r /src/. "$srcdir"
	cd "$srcdir"
	cargo build --release --locked
}

package() {
	install -D -m 0755 "$srcdir"/target/release/%s "$pkgdir"/usr/bin/%s
}
`, Maintainer, PkgName, v, PkgRelease, PkgDesc, a.archString(arch), PkgURL, PkgLicense, PkgName, PkgName)
	return "/work/pkgbuild/PKGBUILD", content
}

func (a *ArchLinux) BuildCommands(v types.Version, arch types.Arch) []string {
	pkgOut := fmt.Sprintf("/work/pkgbuild/%s-%s-%s-%s.pkg.tar.zst",
		PkgName, v, PkgRelease, a.archString(arch))
	return []string{
		"cd /work/pkgbuild && makepkg --noconfirm",
		fmt.Sprintf("mv %s %s", pkgOut, a.ArtifactPath(v, arch)),
	}
}

func (a *ArchLinux) ArtifactName(v types.Version, arch types.Arch) string {
	return fmt.Sprintf("%s_%s-%s_%s.pkg.tar.zst", PkgName, v, PkgRelease, a.archString(arch))
}

func (a *ArchLinux) ArtifactPath(v types.Version, arch types.Arch) string {
	return "/work/" + a.ArtifactName(v, arch)
}
