// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package target

import (
	"fmt"

	"github.com/dpetta/batdoc-release/pkg/types"
)

// Debian builds a .deb with dpkg-deb on a Debian stable base.
type Debian struct{}

func (d *Debian) ID() string    { return "debian" }
func (d *Debian) Image() string { return "debian:bookworm" }

// archString maps the pipeline architecture to Debian's convention.
func (d *Debian) archString(arch types.Arch) string {
	switch arch {
	case types.ArchAarch64:
		return "arm64"
	default:
		return "amd64"
	}
}

func (d *Debian) Provision() []string {
	return []string{
		"apt-get update",
		"apt-get install -y --no-install-recommends build-essential curl ca-certificates pkg-config",
		// Bookworm's rustc predates the edition the crate needs, so the
		// toolchain is pinned via rustup. Per-target exception, not policy.
		"curl -sSf https://sh.rustup.rs | RUSTUP_HOME=/opt/rust CARGO_HOME=/opt/rust sh -s -- -y --default-toolchain 1.78.0 --profile minimal",
		"chmod -R a+rX /opt/rust",
		"useradd --create-home " + BuilderUser,
		"mkdir -p /work && chown -R " + BuilderUser + " /work",
	}
}

func (d *Debian) Metadata(v types.Version, arch types.Arch) (string, string) {
	content := fmt.Sprintf(`Package: %s
Version: %s-%s
Section: utils
Priority: optional
Architecture: %s
Depends: libc6
Maintainer: %s
Homepage: %s
Description: %s
 Reads legacy OLE2 .doc and .xls, modern OOXML .docx, .xlsx, and .pptx,
 and PDF files and renders their text as markdown.
`, PkgName, v, PkgRelease, d.archString(arch), Maintainer, PkgURL, PkgDesc)
	return "/work/control", content
}

func (d *Debian) BuildCommands(v types.Version, arch types.Arch) []string {
	return []string{
		"cp -r /src /work/build",
		"cd /work/build && PATH=/opt/rust/bin:$PATH cargo build --release --locked",
		"install -D -m 0755 /work/build/target/release/" + PkgName + " /work/pkgroot/usr/bin/" + PkgName,
		"install -D -m 0644 /work/control /work/pkgroot/DEBIAN/control",
		fmt.Sprintf("dpkg-deb --build --root-owner-group /work/pkgroot %s", d.ArtifactPath(v, arch)),
	}
}

func (d *Debian) ArtifactName(v types.Version, arch types.Arch) string {
	return fmt.Sprintf("%s_%s-%s_%s.deb", PkgName, v, PkgRelease, d.archString(arch))
}

func (d *Debian) ArtifactPath(v types.Version, arch types.Arch) string {
	return "/work/" + d.ArtifactName(v, arch)
}
