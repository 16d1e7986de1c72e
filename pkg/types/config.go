// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ExitPolicy decides the process exit code when some but not all build
// targets fail.
type ExitPolicy string

const (
	// PolicyDegraded exits zero as long as at least one target succeeded.
	PolicyDegraded ExitPolicy = "degraded"

	// PolicyStrict exits non-zero unless every target succeeded.
	PolicyStrict ExitPolicy = "strict"
)

// HTTPConfig holds shared HTTP settings for stages that talk to the release
// host.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with requests
	// (e.g. "batdoc-release/0.3").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries of transient download failures before they
	// are reported as download errors.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// BuildConfig holds settings for the build stage.
type BuildConfig struct {
	// SourceDir is the application source tree to package.
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// OutputDir is where the collector places finished packages.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// StagingDir holds per-target scratch space (metadata files, artifacts
	// copied out of build containers before collection).
	StagingDir string `json:"staging_dir" yaml:"staging_dir"`

	// Targets selects which package targets run. Empty means all four.
	Targets []string `json:"targets" yaml:"targets"`

	// Arch is the architecture the builders produce packages for.
	Arch Arch `json:"arch" yaml:"arch"`

	// StepTimeout is the hard timeout applied to each external invocation
	// (provisioning command, compile, packaging tool).
	StepTimeout time.Duration `json:"step_timeout" yaml:"step_timeout"`

	// Policy selects strict or degraded-success exit behavior.
	Policy ExitPolicy `json:"policy" yaml:"policy"`
}

// PublishConfig holds settings for the publish stage.
type PublishConfig struct {
	HTTPConfig `yaml:",inline"`

	// Repo is the release-hosting repository ("owner/name") whose tagged
	// releases hold the source and binary tarballs.
	Repo string `json:"repo" yaml:"repo"`

	// BaseURL is the release host base (default "https://github.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// StagingDir is where fetched artifacts and rendered manifests live
	// before they touch any downstream clone.
	StagingDir string `json:"staging_dir" yaml:"staging_dir"`

	// WorkDir is where downstream repositories are cloned, one subdirectory
	// per repo.
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// StepTimeout is the hard timeout per version-control invocation.
	StepTimeout time.Duration `json:"step_timeout" yaml:"step_timeout"`
}

// PipelineConfig groups both stage configurations.
type PipelineConfig struct {
	Build   BuildConfig   `json:"build" yaml:"build"`
	Publish PublishConfig `json:"publish" yaml:"publish"`
}
