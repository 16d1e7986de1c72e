// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publishrepo

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpetta/batdoc-release/internal/render"
	"github.com/dpetta/batdoc-release/pkg/types"
)

// mockGit simulates git. Clones and pushes can be failed per-remote, and
// repos can be marked clean (status --porcelain prints nothing).
type mockGit struct {
	failCloneURL string // remote URL substring whose clone fails
	failAddDir   string // clone dir substring whose add fails
	failPushDir  string // clone dir substring whose push fails
	cleanDir     string // clone dir substring reporting no staged changes
	calls        []string
}

func (m *mockGit) Run(_ context.Context, dir string, args ...string) (string, error) {
	m.calls = append(m.calls, strings.Join(args, " "))
	op := args[0]
	if op == "-c" {
		op = "commit"
	}
	switch op {
	case "clone":
		if m.failCloneURL != "" && strings.Contains(args[3], m.failCloneURL) {
			return "fatal: could not read from remote repository", errors.New("exit status 128")
		}
	case "add":
		if m.failAddDir != "" && strings.Contains(dir, m.failAddDir) {
			return "fatal: Unable to create index.lock", errors.New("exit status 128")
		}
	case "status":
		if m.cleanDir != "" && strings.Contains(dir, m.cleanDir) {
			return "", nil
		}
		return " M PKGBUILD\n", nil
	case "push":
		if m.failPushDir != "" && strings.Contains(dir, m.failPushDir) {
			return "error: failed to push some refs", errors.New("exit status 1")
		}
	}
	return "", nil
}

func fullCreds() map[string]string {
	return map[string]string{
		"aur-ssh-key": "/home/u/.ssh/aur",
		"tap-token":   "ghp_example",
	}
}

func validManifest() render.Manifest {
	sha256 := strings.Repeat("ab", 32)
	sha512 := strings.Repeat("cd", 64)
	return render.Manifest{
		Version:       "1.2.3",
		SourceURL:     "https://example.com/batdoc-1.2.3.tar.gz",
		SourceSHA256:  sha256,
		SourceSHA512:  sha512,
		X8664URL:      "https://example.com/batdoc-1.2.3-x86_64.tar.gz",
		X8664SHA256:   sha256,
		X8664SHA512:   sha512,
		Aarch64URL:    "https://example.com/batdoc-1.2.3-aarch64.tar.gz",
		Aarch64SHA256: sha256,
		Aarch64SHA512: sha512,
	}
}

func newTestPublisher(t *testing.T, git gitRunner, creds map[string]string) *Publisher {
	t.Helper()
	return &Publisher{git: git, creds: creds, workDir: t.TempDir()}
}

func statusByRepo(results []types.PublishResult) map[string]types.PublishStatus {
	out := make(map[string]types.PublishStatus, len(results))
	for _, r := range results {
		out[r.Repo] = r.Status
	}
	return out
}

func TestPublishAllPushesEveryRepo(t *testing.T) {
	git := &mockGit{}
	p := newTestPublisher(t, git, fullCreds())

	var w strings.Builder
	results := p.PublishAll(context.Background(), DefaultRepos(), validManifest(), &w)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, types.PublishPushed, r.Status, r.Repo)
		assert.Empty(t, r.Detail)
	}

	joined := strings.Join(git.calls, "\n")
	assert.Contains(t, joined, "commit --message Update to v1.2.3")
	assert.Contains(t, w.String(), "3/3 repos pushed")
}

func TestPublishMissingCredentialSkipsOnlyThatRepo(t *testing.T) {
	creds := fullCreds()
	delete(creds, "tap-token")
	git := &mockGit{}
	p := newTestPublisher(t, git, creds)

	results := p.PublishAll(context.Background(), DefaultRepos(), validManifest(), io.Discard)
	byRepo := statusByRepo(results)

	assert.Equal(t, types.PublishSkippedNoCreds, byRepo["dpetta/homebrew-batdoc"])
	assert.Equal(t, types.PublishPushed, byRepo["aur/batdoc"])
	assert.Equal(t, types.PublishPushed, byRepo["aur/batdoc-bin"])

	// The gated repo's remote is never contacted.
	for _, call := range git.calls {
		assert.NotContains(t, call, "homebrew-batdoc")
	}
}

func TestPublishCloneFailureIsNonFatal(t *testing.T) {
	git := &mockGit{failCloneURL: "batdoc-bin.git"}
	p := newTestPublisher(t, git, fullCreds())

	results := p.PublishAll(context.Background(), DefaultRepos(), validManifest(), io.Discard)
	byRepo := statusByRepo(results)

	assert.Equal(t, types.PublishSkippedNoCreds, byRepo["aur/batdoc-bin"])
	assert.Equal(t, types.PublishPushed, byRepo["aur/batdoc"])
	assert.Equal(t, types.PublishPushed, byRepo["dpetta/homebrew-batdoc"])

	for _, r := range results {
		if r.Repo == "aur/batdoc-bin" {
			assert.Contains(t, r.Detail, "clone")
		}
	}
}

func TestPublishUnchangedRepoCreatesNoCommit(t *testing.T) {
	git := &mockGit{cleanDir: "aur-batdoc-bin"}
	p := newTestPublisher(t, git, fullCreds())

	results := p.PublishAll(context.Background(), DefaultRepos(), validManifest(), io.Discard)
	byRepo := statusByRepo(results)

	assert.Equal(t, types.PublishSkippedNoChange, byRepo["aur/batdoc-bin"])

	// Exactly two commits and two pushes: the unchanged repo gets neither.
	var commits, pushes int
	for _, call := range git.calls {
		if strings.Contains(call, "commit --message") {
			commits++
		}
		if strings.HasPrefix(call, "push") {
			pushes++
		}
	}
	assert.Equal(t, 2, commits)
	assert.Equal(t, 2, pushes)
}

func TestPublishRerunWithNoChangesIsNoOp(t *testing.T) {
	// Every repo already matches the rendered manifests.
	git := &mockGit{cleanDir: "clones"}
	p := newTestPublisher(t, git, fullCreds())

	results := p.PublishAll(context.Background(), DefaultRepos(), validManifest(), io.Discard)
	for _, r := range results {
		assert.Equal(t, types.PublishSkippedNoChange, r.Status, r.Repo)
	}
	for _, call := range git.calls {
		assert.NotContains(t, call, "commit")
		assert.NotContains(t, call, "push")
	}
}

func TestPublishPushFailureKeepsLocalCommit(t *testing.T) {
	git := &mockGit{failPushDir: "aur-batdoc"}
	p := newTestPublisher(t, git, fullCreds())

	repos := DefaultRepos()[:1]
	results := p.PublishAll(context.Background(), repos, validManifest(), io.Discard)

	require.Len(t, results, 1)
	assert.Equal(t, types.PublishPushFailed, results[0].Status)
	assert.Contains(t, results[0].Detail, "push")

	// The commit happened before the push failed.
	joined := strings.Join(git.calls, "\n")
	assert.Contains(t, joined, "commit --message Update to v1.2.3")
}

func TestPublishStagingFailureNeverReportsPush(t *testing.T) {
	// A failure before any commit exists must not surface as push-failed.
	git := &mockGit{failAddDir: "aur-batdoc"}
	p := newTestPublisher(t, git, fullCreds())

	results := p.PublishAll(context.Background(), DefaultRepos()[:1], validManifest(), io.Discard)

	require.Len(t, results, 1)
	assert.Equal(t, types.PublishSkippedNoCreds, results[0].Status)
	assert.Contains(t, results[0].Detail, "stage")

	for _, call := range git.calls {
		assert.NotContains(t, call, "commit")
		assert.NotContains(t, call, "push")
	}
}

func TestPublishRenderFailureIsLocalToRepo(t *testing.T) {
	git := &mockGit{}
	p := newTestPublisher(t, git, fullCreds())

	m := validManifest()
	m.SourceSHA256 = "not-a-digest"

	results := p.PublishAll(context.Background(), DefaultRepos(), validManifest(), io.Discard)
	require.Len(t, results, 3)

	bad := p.PublishAll(context.Background(), DefaultRepos()[:1], m, io.Discard)
	require.Len(t, bad, 1)
	assert.Equal(t, types.PublishRenderFailed, bad[0].Status)
	assert.Contains(t, bad[0].Detail, "malformed checksum")
}

func TestStateStatusMapping(t *testing.T) {
	tests := []struct {
		state State
		want  types.PublishStatus
	}{
		{StateCloneFailed, types.PublishSkippedNoCreds},
		{StateStageFailed, types.PublishSkippedNoCreds},
		{StateUnchanged, types.PublishSkippedNoChange},
		{StatePushed, types.PublishPushed},
		{StatePushFailed, types.PublishPushFailed},
		{StateRenderFailed, types.PublishRenderFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.Status(), string(tt.state))
	}
}
