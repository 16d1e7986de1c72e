// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package target

import (
	"fmt"

	"github.com/dpetta/batdoc-release/pkg/types"
)

// RPM builds an .rpm with rpmbuild on a Fedora base. Fedora's packaged Rust
// is current, so no toolchain pin is needed here.
type RPM struct{}

func (r *RPM) ID() string    { return "rpm" }
func (r *RPM) Image() string { return "fedora:41" }

func (r *RPM) archString(arch types.Arch) string {
	return string(arch)
}

func (r *RPM) Provision() []string {
	return []string{
		"dnf install -y rust cargo rpm-build rpmdevtools",
		"useradd --create-home " + BuilderUser,
		"mkdir -p /work && chown -R " + BuilderUser + " /work",
	}
}

func (r *RPM) Metadata(v types.Version, arch types.Arch) (string, string) {
	content := fmt.Sprintf(`Name:           %s
Version:        %s
Release:        %s
Summary:        %s
License:        %s
URL:            %s

%%description
Reads legacy OLE2 .doc and .xls, modern OOXML .docx, .xlsx, and .pptx,
and PDF files and renders their text as markdown.

%%install
install -D -m 0755 /work/build/target/release/%s %%{buildroot}/usr/bin/%s

%%files
/usr/bin/%s
`, PkgName, v, PkgRelease, PkgDesc, PkgLicense, PkgURL, PkgName, PkgName, PkgName)
	return "/work/" + PkgName + ".spec", content
}

func (r *RPM) BuildCommands(v types.Version, arch types.Arch) []string {
	rpmOut := fmt.Sprintf("/home/%s/rpmbuild/RPMS/%s/%s-%s-%s.%s.rpm",
		BuilderUser, r.archString(arch), PkgName, v, PkgRelease, r.archString(arch))
	return []string{
		"rpmdev-setuptree",
		"cp -r /src /work/build",
		"cd /work/build && cargo build --release --locked",
		"rpmbuild -bb /work/" + PkgName + ".spec",
		fmt.Sprintf("mv %s %s", rpmOut, r.ArtifactPath(v, arch)),
	}
}

func (r *RPM) ArtifactName(v types.Version, arch types.Arch) string {
	return fmt.Sprintf("%s_%s-%s_%s.rpm", PkgName, v, PkgRelease, r.archString(arch))
}

func (r *RPM) ArtifactPath(v types.Version, arch types.Arch) string {
	return "/work/" + r.ArtifactName(v, arch)
}
