// Copyright 2025 WhiskeyLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads .argonaut/project.yaml, the per-repo defaults the
// CLIs fall back to when a flag is left unset: the document-store
// connection, the repo identifier, the bundle root, and the top-N default
// for a run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DocStoreConfig holds the connection settings for the Elasticsearch-
// compatible document store. Any field left empty is resolved from its
// ES_* environment variable at client-construction time.
type DocStoreConfig struct {
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ProjectConfig is the shape of .argonaut/project.yaml.
type ProjectConfig struct {
	Repo       string         `yaml:"repo"`
	BundleRoot string         `yaml:"bundle_root"`
	TopN       int            `yaml:"top_n"`
	DocStore   DocStoreConfig `yaml:"docstore"`
}

// DefaultConfig returns the configuration used when no project.yaml exists.
func DefaultConfig(repo string) *ProjectConfig {
	return &ProjectConfig{
		Repo:       repo,
		BundleRoot: "./bundle",
		TopN:       20,
	}
}

// ConfigDir returns the .argonaut directory for a repo checkout rooted at dir.
func ConfigDir(dir string) string {
	return filepath.Join(dir, ".argonaut")
}

// ConfigPath returns the project.yaml path for a repo checkout rooted at dir.
func ConfigPath(dir string) string {
	return filepath.Join(ConfigDir(dir), "project.yaml")
}

// LoadConfig reads and parses project.yaml at path. An empty path resolves
// to ConfigPath of the current working directory. A missing file is not an
// error: LoadConfig returns DefaultConfig for the current directory name.
func LoadConfig(path string) (*ProjectConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	if path == "" {
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(filepath.Base(cwd)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &ProjectConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig(cfg.Repo).TopN
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating its parent directory.
func SaveConfig(path string, cfg *ProjectConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
