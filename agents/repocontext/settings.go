/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repocontext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SettingsPath is where a repository keeps its codeagent settings.
const SettingsPath = ".github/codeagent.yaml"

// Settings is the per-repository configuration file.
type Settings struct {
	Context struct {
		// Files are read in addition to the default project files.
		Files []string `yaml:"files"`
		// Ignore lists extra directory or file names to skip.
		Ignore []string `yaml:"ignore"`
	} `yaml:"context"`
}

// LoadSettings reads SettingsPath under root. A missing file yields zero settings.
func LoadSettings(root string) (*Settings, error) {
	r, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	defer r.Close()
	return loadSettings(r)
}

func loadSettings(r *os.Root) (*Settings, error) {
	var s Settings
	data, err := r.ReadFile(filepath.FromSlash(SettingsPath))
	if errors.Is(err, fs.ErrNotExist) {
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", SettingsPath, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", SettingsPath, err)
	}
	return &s, nil
}
