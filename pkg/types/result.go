// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// BuildResult is the terminal outcome of one package target's build: success
// with an artifact path, or failure with the error and a trailing excerpt of
// the build log. Results are aggregated, never dropped.
type BuildResult struct {
	// Target is the package target identifier: debian, rpm, alpine, or arch.
	Target string `yaml:"target"`

	// OK reports whether the target produced its artifact.
	OK bool `yaml:"ok"`

	// ArtifactPath is the host path of the produced package (empty on failure).
	ArtifactPath string `yaml:"artifact,omitempty"`

	// Err is the failure description (empty on success).
	Err string `yaml:"error,omitempty"`

	// LogTail is the trailing portion of the build log, kept for diagnosis
	// without re-running.
	LogTail string `yaml:"log_tail,omitempty"`

	// Duration is how long the target took to reach a terminal state.
	Duration time.Duration `yaml:"duration"`
}

// PublishStatus is the reported outcome for one downstream repository.
type PublishStatus string

const (
	// PublishSkippedNoCreds covers every failure before a push attempt: a
	// failed capability check, a failed clone, or a failed local staging or
	// commit step. The repo's remote was never written; the result detail
	// carries the cause.
	PublishSkippedNoCreds PublishStatus = "skipped-no-creds"

	// PublishSkippedNoChange means the rendered manifests matched HEAD, so
	// no commit was created. This is the idempotence guarantee.
	PublishSkippedNoChange PublishStatus = "skipped-no-change"

	// PublishPushed means a version-stamped commit was pushed.
	PublishPushed PublishStatus = "pushed"

	// PublishPushFailed means the commit exists locally but the push was
	// rejected. Reported, not retried, and never blocks other repos.
	PublishPushFailed PublishStatus = "push-failed"

	// PublishRenderFailed means this repo's manifests could not be rendered
	// (missing field, malformed checksum). Fatal for this repo only.
	PublishRenderFailed PublishStatus = "render-failed"
)

// PublishResult is the terminal outcome of one downstream repository's
// publish flow.
type PublishResult struct {
	// Repo is the downstream repository name (e.g. "aur/batdoc").
	Repo string `yaml:"repo"`

	// Status is the terminal state reached.
	Status PublishStatus `yaml:"status"`

	// Detail carries the underlying error or command output for failures
	// and skips.
	Detail string `yaml:"detail,omitempty"`
}
