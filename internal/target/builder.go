// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package target

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dpetta/batdoc-release/internal/buildenv"
	"github.com/dpetta/batdoc-release/internal/logger"
	"github.com/dpetta/batdoc-release/pkg/types"
)

// logTailSize bounds how much build output a BuildResult retains.
const logTailSize = 4096

// Build runs one target to a terminal state: provision the environment as
// root, place the packaging metadata, compile and package as the
// unprivileged user, and copy the artifact out to the target's staging
// directory. Every external invocation gets cfg.StepTimeout. The environment
// is always removed, success or not.
func Build(ctx context.Context, rt buildenv.Runtime, tgt Target, v types.Version, cfg types.BuildConfig) types.BuildResult {
	start := time.Now()
	log := newTailBuffer(logTailSize)

	res := buildIn(ctx, rt, tgt, v, cfg, log)
	res.Target = tgt.ID()
	res.LogTail = log.String()
	res.Duration = time.Since(start)
	return res
}

func buildIn(ctx context.Context, rt buildenv.Runtime, tgt Target, v types.Version, cfg types.BuildConfig, log io.Writer) types.BuildResult {
	arch := cfg.Arch
	if arch == "" {
		arch = types.ArchX8664
	}

	env := "batdoc-build-" + tgt.ID()
	if err := rt.Start(ctx, env, tgt.Image(), cfg.SourceDir); err != nil {
		return failure("provisioning environment", err)
	}
	// Disposal must survive a cancelled step context.
	defer func() {
		if err := rt.Remove(context.WithoutCancel(ctx), env); err != nil {
			logger.L().Warnw("leaked build environment", "env", env, "error", err)
		}
	}()

	for _, cmd := range tgt.Provision() {
		if err := execStep(ctx, rt, env, buildenv.RootUser, cmd, log, cfg.StepTimeout); err != nil {
			return failure("installing toolchain", err)
		}
	}

	stage := filepath.Join(cfg.StagingDir, tgt.ID())
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return failure("creating staging directory", err)
	}

	envPath, content := tgt.Metadata(v, arch)
	hostMeta := filepath.Join(stage, filepath.Base(envPath))
	if err := os.WriteFile(hostMeta, []byte(content), 0o644); err != nil {
		return failure("writing packaging metadata", err)
	}
	if err := rt.CopyIn(ctx, env, hostMeta, envPath); err != nil {
		return failure("placing packaging metadata", err)
	}
	if err := execStep(ctx, rt, env, buildenv.RootUser,
		"chown "+BuilderUser+" "+envPath, log, cfg.StepTimeout); err != nil {
		return failure("placing packaging metadata", err)
	}

	for _, cmd := range tgt.BuildCommands(v, arch) {
		if err := execStep(ctx, rt, env, BuilderUser, cmd, log, cfg.StepTimeout); err != nil {
			return failure("building package", err)
		}
	}

	hostArtifact := filepath.Join(stage, tgt.ArtifactName(v, arch))
	if err := rt.CopyOut(ctx, env, tgt.ArtifactPath(v, arch), hostArtifact); err != nil {
		return failure("retrieving artifact", err)
	}

	return types.BuildResult{OK: true, ArtifactPath: hostArtifact}
}

// execStep runs one command inside the environment under a hard timeout. A
// timed-out step fails this target only, never the pipeline.
func execStep(ctx context.Context, rt buildenv.Runtime, env, user, cmd string, log io.Writer, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	logger.L().Debugw("build step", "env", env, "user", user, "command", cmd)
	return rt.Exec(ctx, env, user, cmd, log)
}

func failure(stage string, err error) types.BuildResult {
	return types.BuildResult{Err: fmt.Sprintf("%s: %v", stage, err)}
}

// BuildAll runs every selected target to a terminal state, printing per-
// target status to w and returning the aggregated results. Targets are
// mutually independent; they run sequentially here because each provisions a
// full build environment, but a failure in one never stops the rest.
func BuildAll(ctx context.Context, rt buildenv.Runtime, targets []Target, v types.Version, cfg types.BuildConfig, w io.Writer) []types.BuildResult {
	results := make([]types.BuildResult, 0, len(targets))
	for _, tgt := range targets {
		fmt.Fprintf(w, "building: %s (%s)\n", tgt.ID(), tgt.Image())

		res := Build(ctx, rt, tgt, v, cfg)
		if res.OK {
			fmt.Fprintf(w, "built:   %s (%s)\n", tgt.ID(), filepath.Base(res.ArtifactPath))
		} else {
			fmt.Fprintf(w, "failed:  %s (%s)\n", tgt.ID(), res.Err)
		}
		results = append(results, res)
	}
	return results
}

// tailBuffer keeps the last n bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
