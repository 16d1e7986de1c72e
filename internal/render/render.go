// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render fills the downstream packaging manifests from one set of
// release facts. Rendering is pure substitution: the templates contain
// placeholders only, no control flow, so identical inputs always produce
// byte-identical output. Each downstream package gets two files: the
// human-authored-style manifest and a machine-readable summary derived from
// the same fields, regenerated together so they can never disagree.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/dpetta/batdoc-release/internal/fetch"
	"github.com/dpetta/batdoc-release/pkg/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

var (
	// ErrMissingField means a manifest field required by a template is empty.
	ErrMissingField = errors.New("missing manifest field")

	// ErrBadChecksum means a checksum is not a well-formed hex digest.
	ErrBadChecksum = errors.New("malformed checksum")
)

var (
	sha256Re = regexp.MustCompile(`^[0-9a-f]{64}$`)
	sha512Re = regexp.MustCompile(`^[0-9a-f]{128}$`)
)

// Manifest is the flat field set the templates substitute. Architecture
// coverage is expressed as explicit per-arch fields because the set is fixed
// and the templates carry no loops.
type Manifest struct {
	Version       string
	SourceURL     string
	SourceSHA256  string
	SourceSHA512  string
	X8664URL      string
	X8664SHA256   string
	X8664SHA512   string
	Aarch64URL    string
	Aarch64SHA256 string
	Aarch64SHA512 string
}

// NewManifest builds the manifest from a release and its fetched artifacts.
func NewManifest(rel fetch.Release, artifacts []types.Artifact) (Manifest, error) {
	byName := make(map[string]types.Artifact, len(artifacts))
	for _, a := range artifacts {
		byName[a.Name] = a
	}

	m := Manifest{Version: rel.Version.String()}

	src, ok := byName[rel.SourceName()]
	if !ok {
		return Manifest{}, fmt.Errorf("%w: source tarball %s not fetched", ErrMissingField, rel.SourceName())
	}
	m.SourceURL = rel.SourceURL()
	m.SourceSHA256 = src.Checksums[types.SHA256]
	m.SourceSHA512 = src.Checksums[types.SHA512]

	for _, arch := range types.Arches() {
		bin, ok := byName[rel.BinaryName(arch)]
		if !ok {
			return Manifest{}, fmt.Errorf("%w: binary tarball %s not fetched", ErrMissingField, rel.BinaryName(arch))
		}
		switch arch {
		case types.ArchX8664:
			m.X8664URL = rel.BinaryURL(arch)
			m.X8664SHA256 = bin.Checksums[types.SHA256]
			m.X8664SHA512 = bin.Checksums[types.SHA512]
		case types.ArchAarch64:
			m.Aarch64URL = rel.BinaryURL(arch)
			m.Aarch64SHA256 = bin.Checksums[types.SHA256]
			m.Aarch64SHA512 = bin.Checksums[types.SHA512]
		}
	}

	return m, m.validate()
}

// validate rejects empty fields and malformed digests before any file is
// written. A render failure is fatal for the owning repo's publish only.
func (m Manifest) validate() error {
	fields := map[string]string{
		"version":    m.Version,
		"source_url": m.SourceURL,
		"x86_64_url": m.X8664URL,
		"aarch64_url": m.Aarch64URL,
	}
	for name, v := range fields {
		if v == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	for name, v := range map[string]string{
		"source_sha256":  m.SourceSHA256,
		"x86_64_sha256":  m.X8664SHA256,
		"aarch64_sha256": m.Aarch64SHA256,
	} {
		if !sha256Re.MatchString(v) {
			return fmt.Errorf("%w: %s = %q", ErrBadChecksum, name, v)
		}
	}
	for name, v := range map[string]string{
		"source_sha512":  m.SourceSHA512,
		"x86_64_sha512":  m.X8664SHA512,
		"aarch64_sha512": m.Aarch64SHA512,
	} {
		if !sha512Re.MatchString(v) {
			return fmt.Errorf("%w: %s = %q", ErrBadChecksum, name, v)
		}
	}
	return nil
}

// RepoKind selects which downstream package's files to render.
type RepoKind string

const (
	// AURSource is the AUR package that builds batdoc from the source tarball.
	AURSource RepoKind = "aur-source"

	// AURBin is the AUR package that repacks the prebuilt binary tarballs.
	AURBin RepoKind = "aur-bin"

	// Tap is the Homebrew tap formula.
	Tap RepoKind = "tap"
)

// repoFiles maps each kind to (output file -> template). The summary files
// for the AUR kinds are .SRCINFO; the tap's is YAML generated from the same
// manifest value.
var repoFiles = map[RepoKind]map[string]string{
	AURSource: {
		"PKGBUILD": "pkgbuild_source.tmpl",
		".SRCINFO": "srcinfo_source.tmpl",
	},
	AURBin: {
		"PKGBUILD": "pkgbuild_bin.tmpl",
		".SRCINFO": "srcinfo_bin.tmpl",
	},
	Tap: {
		filepath.Join("Formula", "batdoc.rb"): "formula.tmpl",
	},
}

// tapSummary is the machine-readable sidecar for the tap, derived from the
// manifest and never hand-edited.
type tapSummary struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Source  struct {
		URL    string `yaml:"url"`
		SHA256 string `yaml:"sha256"`
		SHA512 string `yaml:"sha512"`
	} `yaml:"source"`
	Binaries []tapBinary `yaml:"binaries"`
}

type tapBinary struct {
	Arch   string `yaml:"arch"`
	URL    string `yaml:"url"`
	SHA256 string `yaml:"sha256"`
	SHA512 string `yaml:"sha512"`
}

// Render writes kind's files under dir, returning the relative paths
// written. It touches nothing outside dir.
func Render(kind RepoKind, m Manifest, dir string) ([]string, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	files, ok := repoFiles[kind]
	if !ok {
		return nil, fmt.Errorf("unknown repo kind %q", kind)
	}

	var written []string
	for rel, tmplName := range files {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, tmplName, m); err != nil {
			return nil, fmt.Errorf("rendering %s: %w", rel, err)
		}
		if err := writeFile(dir, rel, buf.Bytes()); err != nil {
			return nil, err
		}
		written = append(written, rel)
	}

	if kind == Tap {
		data, err := marshalTapSummary(m)
		if err != nil {
			return nil, err
		}
		if err := writeFile(dir, "manifest.yaml", data); err != nil {
			return nil, err
		}
		written = append(written, "manifest.yaml")
	}

	return written, nil
}

func marshalTapSummary(m Manifest) ([]byte, error) {
	var s tapSummary
	s.Name = "batdoc"
	s.Version = m.Version
	s.Source.URL = m.SourceURL
	s.Source.SHA256 = m.SourceSHA256
	s.Source.SHA512 = m.SourceSHA512
	s.Binaries = []tapBinary{
		{Arch: string(types.ArchX8664), URL: m.X8664URL, SHA256: m.X8664SHA256, SHA512: m.X8664SHA512},
		{Arch: string(types.ArchAarch64), URL: m.Aarch64URL, SHA256: m.Aarch64SHA256, SHA512: m.Aarch64SHA512},
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshalling tap summary: %w", err)
	}
	return data, nil
}

func writeFile(dir, rel string, data []byte) error {
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	return nil
}
