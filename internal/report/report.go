// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report aggregates per-target and per-repo outcomes into a run
// report. Failures are carried with enough context to diagnose without
// re-running; the process exit code is derived from the aggregate under the
// configured policy, never from any single failure.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/dpetta/batdoc-release/pkg/types"
)

// RunReport is the structured record of one build or publish run.
type RunReport struct {
	// ID is a unique run identifier.
	ID string `yaml:"id"`

	// Stage is "build" or "publish".
	Stage string `yaml:"stage"`

	// Version is the release version the run operated on.
	Version types.Version `yaml:"version"`

	// StartedAt is when the run began.
	StartedAt time.Time `yaml:"started_at"`

	// Policy is the exit policy in force for the build stage.
	Policy types.ExitPolicy `yaml:"policy,omitempty"`

	Builds    []types.BuildResult   `yaml:"builds,omitempty"`
	Publishes []types.PublishResult `yaml:"publishes,omitempty"`
}

// New starts a report for one run.
func New(stage string, v types.Version, policy types.ExitPolicy) *RunReport {
	return &RunReport{
		ID:        uuid.NewString(),
		Stage:     stage,
		Version:   v,
		StartedAt: time.Now().UTC(),
		Policy:    policy,
	}
}

// ExitCode derives the process exit status from the aggregate.
//
// Build runs: under the degraded policy one surviving target is a success
// ("degraded success"); under strict, every target must succeed. Publish
// runs: skipped and push-failed repos never fail the run by themselves —
// the fatal publish precondition is handled before a report exists.
func (r *RunReport) ExitCode() int {
	if r.Stage == "build" {
		ok := 0
		for _, b := range r.Builds {
			if b.OK {
				ok++
			}
		}
		switch {
		case len(r.Builds) == 0:
			return 1
		case r.Policy == types.PolicyStrict && ok < len(r.Builds):
			return 1
		case ok == 0:
			return 1
		}
	}
	return 0
}

// BuildsOK counts successful build targets.
func (r *RunReport) BuildsOK() int {
	n := 0
	for _, b := range r.Builds {
		if b.OK {
			n++
		}
	}
	return n
}

// WriteYAML writes the full report to path.
func (r *RunReport) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshalling run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}

// Summarize prints the human-readable aggregate, one line per outcome.
func (r *RunReport) Summarize(w io.Writer) {
	fmt.Fprintf(w, "\nRun %s (%s %s)\n", r.ID, r.Stage, r.Version.Tag())

	for _, b := range r.Builds {
		if b.OK {
			fmt.Fprintf(w, "  %-8s ok       %s (%s)\n", b.Target, b.ArtifactPath, b.Duration.Round(time.Second))
		} else {
			fmt.Fprintf(w, "  %-8s FAILED   %s\n", b.Target, b.Err)
		}
	}
	for _, p := range r.Publishes {
		if p.Detail != "" {
			fmt.Fprintf(w, "  %-24s %s (%s)\n", p.Repo, p.Status, p.Detail)
		} else {
			fmt.Fprintf(w, "  %-24s %s\n", p.Repo, p.Status)
		}
	}
}
