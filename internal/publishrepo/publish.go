// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publishrepo pushes rendered manifests to the downstream package
// repositories: two AUR packages and one Homebrew tap. Each repo walks a
// small state machine to a terminal state; no repo's failure ever blocks the
// others, and re-running against unchanged content creates zero commits.
package publishrepo

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dpetta/batdoc-release/internal/logger"
	"github.com/dpetta/batdoc-release/internal/render"
	"github.com/dpetta/batdoc-release/pkg/types"
)

// State is a downstream repo's position in its publish flow.
//
//	Unattempted → Cloned → {Unchanged | Staged → Committed → {Pushed | PushFailed}}
//	Unattempted → CloneFailed
//	Cloned → {RenderFailed | StageFailed}
type State string

const (
	StateUnattempted  State = "unattempted"
	StateCloneFailed  State = "clone-failed"
	StateCloned       State = "cloned"
	StateRenderFailed State = "render-failed"
	StateStageFailed  State = "stage-failed"
	StateUnchanged    State = "unchanged"
	StateStaged       State = "staged"
	StateCommitted    State = "committed"
	StatePushed       State = "pushed"
	StatePushFailed   State = "push-failed"
)

// Status maps a terminal state to the reported publish status. PushFailed is
// reserved for an actually attempted push; earlier failures (clone, staging)
// report as the skip status, since the remote was never written, with the
// detail string carrying the cause.
func (s State) Status() types.PublishStatus {
	switch s {
	case StateUnchanged:
		return types.PublishSkippedNoChange
	case StatePushed:
		return types.PublishPushed
	case StatePushFailed:
		return types.PublishPushFailed
	case StateRenderFailed:
		return types.PublishRenderFailed
	default:
		return types.PublishSkippedNoCreds
	}
}

// Repo describes one downstream package repository.
type Repo struct {
	// Name identifies the repo in reports, e.g. "aur/batdoc".
	Name string

	// URL is the git remote.
	URL string

	// Kind selects which manifests this repo owns.
	Kind render.RepoKind

	// CredKey names the secret that must be present before this repo is
	// attempted. Empty means no credential gate.
	CredKey string
}

// DefaultRepos returns the three downstream repositories batdoc publishes to.
func DefaultRepos() []Repo {
	return []Repo{
		{
			Name:    "aur/batdoc",
			URL:     "ssh://aur@aur.archlinux.org/batdoc.git",
			Kind:    render.AURSource,
			CredKey: "aur-ssh-key",
		},
		{
			Name:    "aur/batdoc-bin",
			URL:     "ssh://aur@aur.archlinux.org/batdoc-bin.git",
			Kind:    render.AURBin,
			CredKey: "aur-ssh-key",
		},
		{
			Name:    "dpetta/homebrew-batdoc",
			URL:     "https://github.com/dpetta/homebrew-batdoc.git",
			Kind:    render.Tap,
			CredKey: "tap-token",
		},
	}
}

// gitRunner abstracts git invocation for testing.
type gitRunner interface {
	// Run executes git with args in dir (empty dir means inherit), returning
	// combined output.
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// osGit is the production runner. Every invocation is bounded by timeout.
type osGit struct {
	timeout time.Duration
}

func (g *osGit) Run(ctx context.Context, dir string, args ...string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Publisher drives the publish flow for a set of downstream repos.
type Publisher struct {
	git     gitRunner
	creds   map[string]string
	workDir string
}

// New builds a Publisher cloning into workDir, with every git invocation
// bounded by stepTimeout.
func New(creds map[string]string, workDir string, stepTimeout time.Duration) *Publisher {
	return &Publisher{
		git:     &osGit{timeout: stepTimeout},
		creds:   creds,
		workDir: workDir,
	}
}

// PublishAll walks every repo to a terminal state, printing per-repo status
// to w. The flows are independent: each repo gets its own clone directory,
// and failures are recorded, not propagated.
func (p *Publisher) PublishAll(ctx context.Context, repos []Repo, m render.Manifest, w io.Writer) []types.PublishResult {
	results := make([]types.PublishResult, 0, len(repos))
	for _, repo := range repos {
		state, detail := p.publishOne(ctx, repo, m)

		status := state.Status()
		switch status {
		case types.PublishPushed:
			fmt.Fprintf(w, "pushed:  %s\n", repo.Name)
		case types.PublishSkippedNoChange:
			fmt.Fprintf(w, "skipped: %s (no changes)\n", repo.Name)
		default:
			fmt.Fprintf(w, "%s: %s (%s)\n", status, repo.Name, detail)
		}

		results = append(results, types.PublishResult{Repo: repo.Name, Status: status, Detail: detail})
	}

	var pushed int
	for _, r := range results {
		if r.Status == types.PublishPushed {
			pushed++
		}
	}
	fmt.Fprintf(w, "\nPublish summary: %d/%d repos pushed\n", pushed, len(repos))

	return results
}

// publishOne runs one repo's state machine. The returned detail is empty for
// Pushed and Unchanged.
func (p *Publisher) publishOne(ctx context.Context, repo Repo, m render.Manifest) (State, string) {
	if repo.CredKey != "" && p.creds[repo.CredKey] == "" {
		logger.L().Warnw("skipping downstream repo", "repo", repo.Name, "missing_credential", repo.CredKey)
		return StateCloneFailed, fmt.Sprintf("credential %q not provided", repo.CredKey)
	}

	cloneDir := filepath.Join(p.workDir, "clones", safeName(repo.Name))
	if err := os.RemoveAll(cloneDir); err != nil {
		return StateCloneFailed, fmt.Sprintf("clearing clone directory: %v", err)
	}
	if out, err := p.git.Run(ctx, "", "clone", "--depth", "1", repo.URL, cloneDir); err != nil {
		logger.L().Warnw("clone failed, skipping repo", "repo", repo.Name, "error", err)
		return StateCloneFailed, fmt.Sprintf("clone: %v: %s", err, strings.TrimSpace(out))
	}

	// Render to a staging directory, then overwrite the repo's owned files.
	stage := filepath.Join(p.workDir, "staging", safeName(repo.Name))
	files, err := render.Render(repo.Kind, m, stage)
	if err != nil {
		return StateRenderFailed, err.Error()
	}
	for _, rel := range files {
		if err := copyFile(filepath.Join(stage, rel), filepath.Join(cloneDir, rel)); err != nil {
			return StateRenderFailed, err.Error()
		}
	}

	if out, err := p.git.Run(ctx, cloneDir, "add", "--all"); err != nil {
		return StateStageFailed, fmt.Sprintf("stage: %v: %s", err, strings.TrimSpace(out))
	}

	// Idempotence gate: nothing staged differs from HEAD, nothing to do.
	out, err := p.git.Run(ctx, cloneDir, "status", "--porcelain")
	if err != nil {
		return StateStageFailed, fmt.Sprintf("status: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		return StateUnchanged, ""
	}

	if out, err := p.git.Run(ctx, cloneDir,
		"-c", "user.name=batdoc-release",
		"-c", "user.email=d@disassemble.net",
		"commit", "--message", "Update to v"+m.Version); err != nil {
		return StateStageFailed, fmt.Sprintf("commit: %v: %s", err, strings.TrimSpace(out))
	}

	// A push failure keeps the local commit; it is reported, never rolled
	// back, and never blocks the other repos.
	if out, err := p.git.Run(ctx, cloneDir, "push", "origin", "HEAD"); err != nil {
		return StatePushFailed, fmt.Sprintf("push: %v: %s", err, strings.TrimSpace(out))
	}

	return StatePushed, ""
}

func safeName(name string) string {
	return strings.ReplaceAll(name, "/", "-")
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading staged %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("applying %s: %w", dest, err)
	}
	return nil
}
