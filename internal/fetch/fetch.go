// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves a tagged release's source and binary tarballs from
// the release host and computes the checksums every downstream manifest
// needs. Confirming the release exists is the publish stage's one fatal
// precondition; everything downstream is reached only after it passes.
package fetch

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dpetta/batdoc-release/internal/logger"
	"github.com/dpetta/batdoc-release/pkg/types"
)

var (
	// ErrReleaseNotFound means the hosted release for the requested version
	// does not exist. Fatal: the publish run aborts before any downstream
	// repository is touched.
	ErrReleaseNotFound = errors.New("release not found")

	// ErrIncompleteDownload means a transfer ended short of the size the
	// host advertised.
	ErrIncompleteDownload = errors.New("incomplete download")
)

const defaultBaseURL = "https://github.com"

// Release locates one version's hosted artifacts.
type Release struct {
	Version types.Version
	Repo    string // "owner/name" on the release host
	BaseURL string // host base, defaults to https://github.com
}

func (r Release) base() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return defaultBaseURL
}

// SourceName is the source tarball filename for this version.
func (r Release) SourceName() string {
	return fmt.Sprintf("batdoc-%s.tar.gz", r.Version)
}

// BinaryName is the prebuilt binary tarball filename for one architecture.
func (r Release) BinaryName(arch types.Arch) string {
	return fmt.Sprintf("batdoc-%s-%s.tar.gz", r.Version, arch)
}

func (r Release) assetURL(name string) string {
	return fmt.Sprintf("%s/%s/releases/download/%s/%s", r.base(), r.Repo, r.Version.Tag(), name)
}

// SourceURL is the download URL of the source tarball.
func (r Release) SourceURL() string {
	return r.assetURL(r.SourceName())
}

// BinaryURL is the download URL of one architecture's binary tarball.
func (r Release) BinaryURL(arch types.Arch) string {
	return r.assetURL(r.BinaryName(arch))
}

// NewClient builds the retrying HTTP client used for all release-host
// traffic. Transient failures (network errors, 5xx) are retried a bounded
// number of times before surfacing as download failures.
func NewClient(cfg types.PublishConfig) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	if cfg.MaxRetries > 0 {
		c.RetryMax = cfg.MaxRetries
	}
	if cfg.Timeout > 0 {
		c.HTTPClient.Timeout = cfg.Timeout
	}
	c.Logger = retryLogger{}
	return c
}

// retryLogger routes retryablehttp's leveled output to the shared logger.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...interface{}) { logger.L().Errorw(msg, kv...) }
func (retryLogger) Warn(msg string, kv ...interface{})  { logger.L().Warnw(msg, kv...) }
func (retryLogger) Info(msg string, kv ...interface{})  { logger.L().Infow(msg, kv...) }
func (retryLogger) Debug(msg string, kv ...interface{}) { logger.L().Debugw(msg, kv...) }

// CheckRelease confirms the hosted release exists by probing the source
// tarball. On 404 it returns ErrReleaseNotFound with remediation text.
func CheckRelease(ctx context.Context, client *retryablehttp.Client, rel Release, ua string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, rel.SourceURL(), nil)
	if err != nil {
		return fmt.Errorf("building release probe: %w", err)
	}
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probing release %s: %w", rel.Version.Tag(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf(
			"%w: no %s release for %s; tag the release and upload %s before publishing",
			ErrReleaseNotFound, rel.Version.Tag(), rel.Repo, rel.SourceName())
	default:
		return fmt.Errorf("probing release %s: HTTP %d", rel.Version.Tag(), resp.StatusCode)
	}
}

// FetchAll downloads the source tarball and one binary tarball per supported
// architecture into stagingDir, computing every required checksum for each.
// The architecture set is fixed; nothing is discovered from the host.
func FetchAll(ctx context.Context, client *retryablehttp.Client, rel Release, stagingDir, ua string, w io.Writer) ([]types.Artifact, error) {
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}

	assets := []struct {
		name string
		url  string
	}{
		{rel.SourceName(), rel.SourceURL()},
	}
	for _, arch := range types.Arches() {
		assets = append(assets, struct {
			name string
			url  string
		}{rel.BinaryName(arch), rel.BinaryURL(arch)})
	}

	artifacts := make([]types.Artifact, 0, len(assets))
	for _, asset := range assets {
		dest := filepath.Join(stagingDir, asset.name)
		fmt.Fprintf(w, "fetching: %s\n", asset.name)

		if err := download(ctx, client, asset.url, dest, ua); err != nil {
			return nil, fmt.Errorf("downloading %s: %w", asset.name, err)
		}

		sums, size, err := Checksums(dest)
		if err != nil {
			return nil, fmt.Errorf("checksumming %s: %w", asset.name, err)
		}

		artifacts = append(artifacts, types.Artifact{
			Name:      asset.name,
			Path:      dest,
			Size:      size,
			Checksums: sums,
		})
	}

	return artifacts, nil
}

// download fetches url to destPath via a temp file renamed on success, and
// verifies the advertised Content-Length when the host provides one.
func download(ctx context.Context, client *retryablehttp.Client, url, destPath, ua string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		if errors.Is(copyErr, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: connection closed after %d bytes", ErrIncompleteDownload, written)
		}
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if resp.ContentLength > 0 && written != resp.ContentLength {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: got %d of %d bytes", ErrIncompleteDownload, written, resp.ContentLength)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Checksums computes every algorithm any downstream manifest requires in a
// single pass over the file. Deterministic: same bytes, same digests.
func Checksums(path string) (map[types.Algorithm]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h256 := sha256.New()
	h512 := sha512.New()

	size, err := io.Copy(io.MultiWriter(h256, h512), f)
	if err != nil {
		return nil, 0, fmt.Errorf("hashing %s: %w", path, err)
	}

	return map[types.Algorithm]string{
		types.SHA256: hex.EncodeToString(h256.Sum(nil)),
		types.SHA512: hex.EncodeToString(h512.Sum(nil)),
	}, size, nil
}
