// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Algorithm identifies a checksum algorithm required by a downstream
// manifest. The two are not interchangeable: AUR packaging consumes SHA-256,
// the derived summaries carry both, so the fetcher always computes both.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// Algorithms lists every checksum algorithm any downstream target requires.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, SHA512}
}

// Arch is a CPU architecture a release ships binaries for. The set is fixed
// and known up front, not discovered from the release host.
type Arch string

const (
	ArchX8664   Arch = "x86_64"
	ArchAarch64 Arch = "aarch64"
)

// Arches returns the supported architecture set in stable order.
func Arches() []Arch {
	return []Arch{ArchX8664, ArchAarch64}
}

// Artifact is a named byte blob with its checksums: a downloaded source or
// binary tarball, read-only once fetched.
type Artifact struct {
	// Name is the artifact's filename (e.g. "batdoc-1.2.3.tar.gz").
	Name string `yaml:"name"`

	// Path is the local path the artifact was downloaded to.
	Path string `yaml:"path"`

	// Size is the byte length of the blob.
	Size int64 `yaml:"size"`

	// Checksums maps algorithm to lowercase hex digest. Every algorithm in
	// Algorithms() is present.
	Checksums map[Algorithm]string `yaml:"checksums"`
}
