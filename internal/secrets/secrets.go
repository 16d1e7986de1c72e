// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads publishing credentials from a directory of plain-text
// files. Each file in the directory represents one credential: the filename is
// the key name and the file contents (trimmed) are the value.
//
// Supported key files: aur-ssh-key (path to an SSH key with push access to the
// AUR), tap-token (token with push access to the Homebrew tap).
//
// Credentials are capabilities, not requirements. A missing directory or key
// means the corresponding downstream repo is skipped, never that the run fails.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envPrefix maps key files to environment overrides, so CI can inject
// credentials without a secrets directory: aur-ssh-key becomes
// BATDOC_RELEASE_AUR_SSH_KEY.
const envPrefix = "BATDOC_RELEASE_"

// KnownKeys are the credential names the publisher gates on.
var KnownKeys = []string{"aur-ssh-key", "tap-token"}

// Load reads all files in dir and returns a map of filename to trimmed
// contents, with environment overrides applied on top. A missing directory or
// missing files are not errors; Load returns an empty map. Unreadable files
// produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	creds := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			creds[name] = value
		}
	}

	for _, key := range KnownKeys {
		if v := os.Getenv(envName(key)); v != "" {
			creds[key] = v
		}
	}

	return creds, nil
}

func envName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
