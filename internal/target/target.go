// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package target implements the four package target builders: Debian, RPM,
// Alpine, and Arch. Each target is a variant carrying its own base image,
// provisioning steps, metadata schema, and native packaging tool; the
// builder drives them through a uniform sequence inside a disposable
// build environment. One target's failure never aborts the others.
package target

import (
	"fmt"

	"github.com/dpetta/batdoc-release/pkg/types"
)

// Package identity shared by every target's metadata. The application itself
// is opaque to this tool; these fields describe it to downstream package
// managers.
const (
	PkgName    = "batdoc"
	PkgRelease = "1"
	PkgDesc    = "cat(1) for doc, docx, xls, xlsx, pptx, and pdf files"
	PkgURL     = "https://github.com/dpetta/batdoc"
	PkgLicense = "MIT"
	Maintainer = "Damon Petta <d@disassemble.net>"
)

// BuilderUser is the unprivileged identity the compile and packaging steps
// run as. Provisioning creates it; abuild and makepkg refuse to run as root.
const BuilderUser = "builder"

// Target describes one downstream packaging format. Provisioning commands
// run as root; build commands run as BuilderUser. The metadata schemas are
// deliberately not unified: each format keeps its own generation step.
type Target interface {
	// ID is the target identifier: debian, rpm, alpine, or arch.
	ID() string

	// Image is the base image for the target's build environment.
	Image() string

	// Provision returns the root-phase shell commands that install the
	// distribution's toolchain and create the unprivileged build user.
	Provision() []string

	// Metadata returns the packaging recipe for this format (control file,
	// RPM spec, APKBUILD, or PKGBUILD) and the path inside the environment
	// it must be placed at.
	Metadata(v types.Version, arch types.Arch) (envPath, content string)

	// BuildCommands returns the unprivileged shell commands that compile
	// the application and invoke the native packaging tool. The last
	// command leaves the artifact at ArtifactPath.
	BuildCommands(v types.Version, arch types.Arch) []string

	// ArtifactName is the output filename, following the shared
	// <pkg>_<version>-<release>_<arch>.<ext> convention with the target's
	// own architecture string and extension.
	ArtifactName(v types.Version, arch types.Arch) string

	// ArtifactPath is where the finished package sits inside the
	// environment after the build commands complete.
	ArtifactPath(v types.Version, arch types.Arch) string
}

// All returns every supported target in stable order.
func All() []Target {
	return []Target{&Debian{}, &RPM{}, &Alpine{}, &ArchLinux{}}
}

// Select resolves target identifiers to targets. Empty input selects all.
func Select(ids []string) ([]Target, error) {
	if len(ids) == 0 {
		return All(), nil
	}

	byID := make(map[string]Target)
	for _, t := range All() {
		byID[t.ID()] = t
	}

	selected := make([]Target, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown target %q (have: debian, rpm, alpine, arch)", id)
		}
		selected = append(selected, t)
	}
	return selected, nil
}
