// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the batdoc-release CLI.
//
// batdoc-release packages batdoc for Debian, Fedora, Alpine, and Arch inside
// isolated container environments, and synchronizes tagged releases to the
// downstream AUR and Homebrew repositories.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dpetta/batdoc-release/internal/logger"
	"github.com/dpetta/batdoc-release/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds publishing credentials loaded from the secrets
// directory at startup. Missing credentials skip repos, never fail runs.
var loadedSecrets map[string]string

// rootCmd is the base command for the batdoc-release CLI.
var rootCmd = &cobra.Command{
	Use:   "batdoc-release",
	Short: "Build and publish batdoc release packages",
	Long: `batdoc-release drives the batdoc release pipeline. The build stage compiles
and packages batdoc for four Linux package formats (deb, rpm, apk,
pkg.tar.zst) inside disposable container environments. The publish stage
fetches a tagged release's tarballs, renders the downstream packaging
manifests, and pushes them to the AUR packages and the Homebrew tap.

Each stage is a subcommand: build, publish, and report. Stages are
independent; publish consumes hosted release tarballs, not build output.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			parsed, ok := logger.ParseLevel(lvl)
			if !ok {
				return fmt.Errorf("unknown log level %q", lvl)
			}
			logger.SetLevel(parsed)
		}

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded credentials: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./batdoc-release.yaml or ~/.config/batdoc-release/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of credential files")
	rootCmd.PersistentFlags().String("history-dir", ".batdoc-release", "directory holding the run history database")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("batdoc-release")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "batdoc-release"))
		}
	}

	viper.SetEnvPrefix("BATDOC_RELEASE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// stringSetting resolves a setting with flag > config file > flag default
// precedence. key is the config file path, e.g. "build.output_dir".
func stringSetting(cmd *cobra.Command, name, key string) string {
	if !cmd.Flags().Changed(name) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

// durationSetting is stringSetting for duration-valued flags.
func durationSetting(cmd *cobra.Command, name, key string) time.Duration {
	if !cmd.Flags().Changed(name) && viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	v, _ := cmd.Flags().GetDuration(name)
	return v
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
