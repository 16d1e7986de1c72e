// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package target

import (
	"fmt"

	"github.com/dpetta/batdoc-release/pkg/types"
)

// Alpine builds an .apk with abuild. abuild refuses to run as root, so the
// packaging phase runs as the unprivileged build user; the signing key it
// needs is generated during that user's first command.
type Alpine struct{}

func (a *Alpine) ID() string    { return "alpine" }
func (a *Alpine) Image() string { return "alpine:3.21" }

func (a *Alpine) archString(arch types.Arch) string {
	return string(arch)
}

func (a *Alpine) Provision() []string {
	return []string{
		// Alpine's packaged cargo trails the crate's minimum; rustup pins it.
		// Per-target exception, same as Debian. The toolchain lands under
		// /opt/rust so the unprivileged build user can reach it.
		"apk add --no-cache alpine-sdk rustup",
		"RUSTUP_HOME=/opt/rust CARGO_HOME=/opt/rust rustup-init -y --default-toolchain 1.78.0 --profile minimal --no-modify-path",
		"chmod -R a+rX /opt/rust",
		"adduser -D " + BuilderUser,
		"addgroup " + BuilderUser + " abuild",
		// The recipe directory must exist before the APKBUILD is copied in,
		// and must be builder-writable: abuild checksum rewrites the APKBUILD.
		"mkdir -p /work/apkbuild /var/cache/distfiles",
		"chown -R " + BuilderUser + " /work /var/cache/distfiles",
	}
}

func (a *Alpine) Metadata(v types.Version, arch types.Arch) (string, string) {
	content := fmt.Sprintf(`# Maintainer: %s
pkgname=%s
pkgver=%s
pkgrel=%s
pkgdesc="%s"
url="%s"
arch="%s"
license="%s"
makedepends="cargo"
options="!check"

build() {
	mkdir -p "$builddir"
	cp -r /src/. "$builddir"
	cd "$builddir"
	cargo build --release --locked
}

package() {
	install -D -m 0755 "$builddir"/target/release/%s "$pkgdir"/usr/bin/%s
}
`, Maintainer, PkgName, v, PkgRelease, PkgDesc, PkgURL, a.archString(arch), PkgLicense, PkgName, PkgName)
	return "/work/apkbuild/APKBUILD", content
}

func (a *Alpine) BuildCommands(v types.Version, arch types.Arch) []string {
	apkOut := fmt.Sprintf("/home/%s/packages/work/%s/%s-%s-r%s.apk",
		BuilderUser, a.archString(arch), PkgName, v, PkgRelease)
	return []string{
		"abuild-keygen -a -n",
		"cd /work/apkbuild && abuild checksum",
		"cd /work/apkbuild && PATH=/opt/rust/bin:$PATH abuild -r",
		fmt.Sprintf("mv %s %s", apkOut, a.ArtifactPath(v, arch)),
	}
}

func (a *Alpine) ArtifactName(v types.Version, arch types.Arch) string {
	return fmt.Sprintf("%s_%s-%s_%s.apk", PkgName, v, PkgRelease, a.archString(arch))
}

func (a *Alpine) ArtifactPath(v types.Version, arch types.Arch) string {
	return "/work/" + a.ArtifactName(v, arch)
}
