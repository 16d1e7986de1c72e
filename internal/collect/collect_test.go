// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpetta/batdoc-release/pkg/types"
)

func stageArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCollect(t *testing.T) {
	staging := t.TempDir()

	results := []types.BuildResult{
		{Target: "debian", OK: true, ArtifactPath: stageArtifact(t, staging, "batdoc_1.2.3-1_amd64.deb", "deb bytes")},
		{Target: "rpm", OK: false, Err: "building package: exit status 1"},
		{Target: "alpine", OK: true, ArtifactPath: stageArtifact(t, staging, "batdoc_1.2.3-1_x86_64.apk", "apk bytes")},
	}

	outDir := filepath.Join(t.TempDir(), "dist")
	var w strings.Builder
	sum, err := Collect(results, outDir, &w)
	require.NoError(t, err)

	assert.Equal(t, []string{"batdoc_1.2.3-1_amd64.deb", "batdoc_1.2.3-1_x86_64.apk"}, sum.Produced)
	require.Len(t, sum.Failed, 1)
	assert.Equal(t, "rpm", sum.Failed[0].Target)
	assert.Contains(t, sum.Failed[0].Err, "exit status 1")

	data, err := os.ReadFile(filepath.Join(outDir, "batdoc_1.2.3-1_amd64.deb"))
	require.NoError(t, err)
	assert.Equal(t, "deb bytes", string(data))

	// No partial copies left behind.
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".collect-"), "leftover temp file %s", e.Name())
	}

	assert.Contains(t, w.String(), "collected: batdoc_1.2.3-1_amd64.deb")
	assert.Contains(t, w.String(), "1 target(s) failed")
}

func TestCollectAllFailed(t *testing.T) {
	results := []types.BuildResult{
		{Target: "debian", Err: "installing toolchain: exit status 100"},
		{Target: "rpm", Err: "building package: exit status 1"},
	}

	sum, err := Collect(results, filepath.Join(t.TempDir(), "dist"), io.Discard)
	require.ErrorIs(t, err, ErrAllTargetsFailed)
	assert.Empty(t, sum.Produced)
	assert.Len(t, sum.Failed, 2)
}

func TestCollectMissingArtifactBecomesFailure(t *testing.T) {
	results := []types.BuildResult{
		{Target: "debian", OK: true, ArtifactPath: filepath.Join(t.TempDir(), "never-written.deb")},
		{Target: "arch", OK: true, ArtifactPath: stageArtifact(t, t.TempDir(), "batdoc_1.2.3-1_x86_64.pkg.tar.zst", "zst")},
	}

	sum, err := Collect(results, filepath.Join(t.TempDir(), "dist"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"batdoc_1.2.3-1_x86_64.pkg.tar.zst"}, sum.Produced)
	require.Len(t, sum.Failed, 1)
	assert.Equal(t, "debian", sum.Failed[0].Target)
	assert.Contains(t, sum.Failed[0].Err, "collecting artifact")
}
