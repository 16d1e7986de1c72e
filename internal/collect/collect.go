// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect gathers the packages produced by the target builders into
// one output directory. It is the join barrier of the build stage: it runs
// only after every builder has reached a terminal state.
package collect

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dpetta/batdoc-release/pkg/types"
)

// ErrAllTargetsFailed means not a single builder produced an artifact. The
// collector is where the "at least one succeeded" floor is enforced; policy
// above that (strict vs degraded) belongs to the run report.
var ErrAllTargetsFailed = errors.New("all build targets failed")

// Summary reports what the collector gathered and what it could not.
type Summary struct {
	// Produced lists the filenames now present in the output directory.
	Produced []string

	// Failed lists the build results that yielded no artifact, with reasons.
	Failed []types.BuildResult
}

// Collect copies every successful artifact into outDir, creating it if
// absent. Each copy is atomic (temp file + rename) so a crash never leaves a
// partial package in the output directory. Failed targets are carried into
// the summary, never dropped.
func Collect(results []types.BuildResult, outDir string, w io.Writer) (Summary, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	var sum Summary
	for _, res := range results {
		if !res.OK {
			sum.Failed = append(sum.Failed, res)
			continue
		}

		name := filepath.Base(res.ArtifactPath)
		if err := copyAtomic(res.ArtifactPath, filepath.Join(outDir, name)); err != nil {
			res.Err = fmt.Sprintf("collecting artifact: %v", err)
			res.OK = false
			sum.Failed = append(sum.Failed, res)
			fmt.Fprintf(w, "failed:    %s (%s)\n", res.Target, res.Err)
			continue
		}

		sum.Produced = append(sum.Produced, name)
		fmt.Fprintf(w, "collected: %s\n", name)
	}

	fmt.Fprintf(w, "\nCollected %d package(s) into %s, %d target(s) failed\n",
		len(sum.Produced), outDir, len(sum.Failed))

	if len(sum.Produced) == 0 {
		return sum, ErrAllTargetsFailed
	}
	return sum, nil
}

// copyAtomic copies src into dest via a temp file in dest's directory,
// renamed into place only after a complete write.
func copyAtomic(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".collect-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", dest, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
