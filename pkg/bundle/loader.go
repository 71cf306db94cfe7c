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

package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/whiskeylabs/argonaut/pkg/identity"
)

// RawFile is one bundle file read from disk, prior to ID assignment.
type RawFile struct {
	Path  string // relative to the bundle root, slash-separated
	Bytes []byte
}

// LoadDirectory walks root and returns every file except the manifest
// itself, sorted by path for stable downstream processing.
func LoadDirectory(root string) ([]RawFile, error) {
	var files []RawFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestFilename {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("bundle: read %s: %w", rel, err)
		}
		files = append(files, RawFile{Path: rel, Bytes: data})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Checksum returns the lowercase hex SHA-256 of data, used both as the
// artifact's defining checksum field and the manifest's sha256 field.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// BuildOptions configures one Build call.
type BuildOptions struct {
	Repo            string
	BuildID         string
	RunID           string // optional; defaults to the derived bundleId
	CreatedAtMS     int64
	ObjectKeyPrefix string
	ToolFor         func(path, artifactType string) string // optional per-file tool name resolver
}

// Result is the outcome of loading and describing a bundle directory.
type Result struct {
	BundleID string
	RunID    string
	Manifest Manifest
	Files    []RawFile
}

// Build loads root, computes the artifact descriptors and bundleId, and
// assembles the manifest. Artifacts are sorted by sha256 ascending before
// bundleId derivation and serialization, per spec §6.
func Build(root string, opts BuildOptions) (*Result, error) {
	files, err := LoadDirectory(root)
	if err != nil {
		return nil, err
	}

	entries := make([][2]string, len(files))
	for i, f := range files {
		entries[i] = [2]string{f.Path, Checksum(f.Bytes)}
	}
	bundleID, err := identity.BundleID(sortEntriesByChecksum(entries))
	if err != nil {
		return nil, err
	}
	runID := identity.RunID(opts.RunID, bundleID)

	artifacts := make([]Artifact, len(files))
	for i, f := range files {
		checksum := Checksum(f.Bytes)
		artifactType := ClassifyArtifact(f.Path)
		tool := ""
		if opts.ToolFor != nil {
			tool = opts.ToolFor(f.Path, artifactType)
		}
		artifactID, err := identity.ArtifactID(opts.Repo, opts.BuildID, runID, f.Path, checksum)
		if err != nil {
			return nil, err
		}
		objectKey := f.Path
		if opts.ObjectKeyPrefix != "" {
			objectKey = opts.ObjectKeyPrefix + "/" + bundleID + "/artifacts/" + f.Path
		}
		artifacts[i] = Artifact{
			ArtifactID:   artifactID,
			ArtifactType: artifactType,
			Tool:         tool,
			Filename:     f.Path,
			ObjectKey:    objectKey,
			SHA256:       checksum,
			Bytes:        int64(len(f.Bytes)),
		}
	}
	artifacts = SortArtifactsBySHA256(artifacts)

	manifest := Manifest{
		ManifestVersion: ManifestVersion,
		BundleID:        bundleID,
		Repo:            opts.Repo,
		BuildID:         opts.BuildID,
		CreatedAtMS:     opts.CreatedAtMS,
		Artifacts:       artifacts,
	}

	return &Result{BundleID: bundleID, RunID: runID, Manifest: manifest, Files: files}, nil
}

func sortEntriesByChecksum(entries [][2]string) [][2]string {
	sorted := make([][2]string, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i][1] < sorted[j][1] })
	return sorted
}
