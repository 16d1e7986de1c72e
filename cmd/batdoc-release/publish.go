package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dpetta/batdoc-release/internal/fetch"
	"github.com/dpetta/batdoc-release/internal/logger"
	"github.com/dpetta/batdoc-release/internal/publishrepo"
	"github.com/dpetta/batdoc-release/internal/render"
	"github.com/dpetta/batdoc-release/internal/report"
	"github.com/dpetta/batdoc-release/pkg/types"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultMaxRetries  = 3
	defaultGitTimeout  = 2 * time.Minute
	defaultReleaseRepo = "dpetta/batdoc"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Sync a tagged release to the AUR packages and Homebrew tap",
	Long: `Publish fetches a tagged release's source and binary tarballs, computes
their checksums, renders the downstream packaging manifests (PKGBUILDs,
.SRCINFOs, Homebrew formula), and pushes them to aur/batdoc, aur/batdoc-bin,
and the Homebrew tap.

The hosted release must exist before anything runs; a missing release aborts
the whole stage. Past that point repos are independent: a missing credential
or failed push skips that repo and the rest continue. Re-running against an
already-synced release creates no commits.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().String("version", "", "release version (default: read from Cargo.toml)")
	publishCmd.Flags().String("source-dir", ".", "batdoc source tree (for version discovery)")
	publishCmd.Flags().String("repo", defaultReleaseRepo, "release-hosting repository (owner/name)")
	publishCmd.Flags().String("base-url", "", "release host base URL (default https://github.com)")
	publishCmd.Flags().String("staging-dir", "dist/publish", "directory for fetched tarballs and rendered manifests")
	publishCmd.Flags().String("work-dir", "dist/publish/work", "directory for downstream repo clones")
	publishCmd.Flags().Duration("timeout", defaultHTTPTimeout, "HTTP request timeout")
	publishCmd.Flags().String("user-agent", "batdoc-release/"+version, "User-Agent for release host requests")
	publishCmd.Flags().Int("max-retries", defaultMaxRetries, "retries for transient download failures")
	publishCmd.Flags().Duration("step-timeout", defaultGitTimeout, "timeout per version-control invocation")
	publishCmd.Flags().String("report", "", "run report YAML path (default <staging-dir>/run-report.yaml)")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	sourceDir := stringSetting(cmd, "source-dir", "publish.source_dir")

	v, err := resolveVersion(cmd, sourceDir)
	if err != nil {
		return err
	}

	cfg := types.PublishConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationSetting(cmd, "timeout", "publish.timeout"),
			UserAgent: stringSetting(cmd, "user-agent", "publish.user_agent"),
		},
		Repo:        stringSetting(cmd, "repo", "publish.repo"),
		BaseURL:     stringSetting(cmd, "base-url", "publish.base_url"),
		StagingDir:  stringSetting(cmd, "staging-dir", "publish.staging_dir"),
		WorkDir:     stringSetting(cmd, "work-dir", "publish.work_dir"),
		StepTimeout: durationSetting(cmd, "step-timeout", "publish.step_timeout"),
	}
	cfg.MaxRetries, _ = cmd.Flags().GetInt("max-retries")

	ctx := cmd.Context()
	client := fetch.NewClient(cfg)
	rel := fetch.Release{Version: v, Repo: cfg.Repo, BaseURL: cfg.BaseURL}

	// The one fatal precondition: no hosted release, no publishing.
	if err := fetch.CheckRelease(ctx, client, rel, cfg.UserAgent); err != nil {
		return err
	}
	logger.L().Infow("release confirmed", "version", v.Tag(), "repo", cfg.Repo)

	artifacts, err := fetch.FetchAll(ctx, client, rel, cfg.StagingDir, cfg.UserAgent, os.Stdout)
	if err != nil {
		return err
	}

	m, err := render.NewManifest(rel, artifacts)
	if err != nil {
		return fmt.Errorf("assembling manifest inputs: %w", err)
	}

	pub := publishrepo.New(loadedSecrets, cfg.WorkDir, cfg.StepTimeout)
	results := pub.PublishAll(ctx, publishrepo.DefaultRepos(), m, os.Stdout)

	rep := report.New("publish", v, "")
	rep.Publishes = results
	rep.Summarize(os.Stdout)
	return saveReport(cmd, rep, filepath.Join(cfg.StagingDir, "run-report.yaml"))
}
