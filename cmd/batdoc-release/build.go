package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dpetta/batdoc-release/internal/buildenv"
	"github.com/dpetta/batdoc-release/internal/collect"
	"github.com/dpetta/batdoc-release/internal/logger"
	"github.com/dpetta/batdoc-release/internal/report"
	"github.com/dpetta/batdoc-release/internal/target"
	"github.com/dpetta/batdoc-release/pkg/types"
)

const defaultStepTimeout = 15 * time.Minute

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build batdoc packages for every target format",
	Long: `Build compiles batdoc from source and packages it as deb, rpm, apk, and
pkg.tar.zst, each inside its own disposable container environment. A target's
failure never stops the others; finished packages are collected into the
output directory and the run is recorded in the run history.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("version", "", "release version (default: read from Cargo.toml)")
	buildCmd.Flags().String("source-dir", ".", "batdoc source tree to package")
	buildCmd.Flags().String("output-dir", "dist", "directory for finished packages")
	buildCmd.Flags().String("staging-dir", "dist/staging", "per-target scratch directory")
	buildCmd.Flags().StringSlice("targets", nil, "targets to build: debian, rpm, alpine, arch (default all)")
	buildCmd.Flags().String("arch", string(types.ArchX8664), "package architecture")
	buildCmd.Flags().Duration("step-timeout", defaultStepTimeout, "timeout per build step")
	buildCmd.Flags().String("policy", string(types.PolicyDegraded), "exit policy: degraded or strict")
	buildCmd.Flags().String("report", "", "run report YAML path (default <output-dir>/run-report.yaml)")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	sourceDir := stringSetting(cmd, "source-dir", "build.source_dir")

	v, err := resolveVersion(cmd, sourceDir)
	if err != nil {
		return err
	}

	arch, err := parseArch(stringSetting(cmd, "arch", "build.arch"))
	if err != nil {
		return err
	}
	policy, err := parsePolicy(stringSetting(cmd, "policy", "build.policy"))
	if err != nil {
		return err
	}

	cfg := types.BuildConfig{
		SourceDir:   sourceDir,
		OutputDir:   stringSetting(cmd, "output-dir", "build.output_dir"),
		StagingDir:  stringSetting(cmd, "staging-dir", "build.staging_dir"),
		Arch:        arch,
		StepTimeout: durationSetting(cmd, "step-timeout", "build.step_timeout"),
		Policy:      policy,
	}
	cfg.Targets, _ = cmd.Flags().GetStringSlice("targets")

	targets, err := target.Select(cfg.Targets)
	if err != nil {
		return err
	}

	rt, err := buildenv.DetectRuntime()
	if err != nil {
		return err
	}
	logger.L().Infow("starting build", "version", v.Tag(), "runtime", rt.Name(), "targets", len(targets))

	results := target.BuildAll(cmd.Context(), rt, targets, v, cfg, os.Stdout)

	_, collectErr := collect.Collect(results, cfg.OutputDir, os.Stdout)
	if collectErr != nil && !errors.Is(collectErr, collect.ErrAllTargetsFailed) {
		return collectErr
	}

	rep := report.New("build", v, cfg.Policy)
	rep.Builds = results
	rep.Summarize(os.Stdout)
	if err := saveReport(cmd, rep, filepath.Join(cfg.OutputDir, "run-report.yaml")); err != nil {
		return err
	}

	if rep.ExitCode() != 0 {
		return fmt.Errorf("build failed: %d/%d targets succeeded under %s policy",
			rep.BuildsOK(), len(results), cfg.Policy)
	}
	return nil
}

// resolveVersion takes the --version flag when given, otherwise reads the
// version out of the source tree's Cargo.toml.
func resolveVersion(cmd *cobra.Command, sourceDir string) (types.Version, error) {
	if raw, _ := cmd.Flags().GetString("version"); raw != "" {
		return types.ParseVersion(raw)
	}
	return types.VersionFromCargoToml(filepath.Join(sourceDir, "Cargo.toml"))
}

func parseArch(s string) (types.Arch, error) {
	for _, a := range types.Arches() {
		if s == string(a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown architecture %q (supported: %v)", s, types.Arches())
}

func parsePolicy(s string) (types.ExitPolicy, error) {
	switch types.ExitPolicy(s) {
	case types.PolicyDegraded, types.PolicyStrict:
		return types.ExitPolicy(s), nil
	}
	return "", fmt.Errorf("unknown exit policy %q (want degraded or strict)", s)
}

// saveReport writes the YAML report and records the run in the history
// database. A history write failure is logged, not fatal; the run's outcome
// does not depend on bookkeeping.
func saveReport(cmd *cobra.Command, rep *report.RunReport, defaultPath string) error {
	path, _ := cmd.Flags().GetString("report")
	if path == "" {
		path = defaultPath
	}
	if err := rep.WriteYAML(path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", path)

	historyDir, _ := cmd.Flags().GetString("history-dir")
	store, err := report.OpenStore(historyDir)
	if err != nil {
		logger.L().Warnw("run history unavailable", "error", err)
		return nil
	}
	defer store.Close()

	if err := store.SaveRun(rep); err != nil {
		logger.L().Warnw("could not record run", "error", err)
	}
	return nil
}
