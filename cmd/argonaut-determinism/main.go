// Copyright 2025 WhiskeyLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@whiskeylabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command argonaut-determinism runs the acquire -> enrich -> score -> act
// pipeline twice against two independent in-memory document stores with
// identical inputs, and reports whether the two runs produced identical
// state. It exits 0 when the runs agree and 1 when they diverge.
//
// Usage:
//
//	argonaut-determinism --bundle ./bundle --repo acme/app --build-id build-42
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/whiskeylabs/argonaut/internal/config"
	internalerrors "github.com/whiskeylabs/argonaut/internal/errors"
	"github.com/whiskeylabs/argonaut/internal/output"
	"github.com/whiskeylabs/argonaut/internal/ui"
	"github.com/whiskeylabs/argonaut/pkg/determinism"
	"github.com/whiskeylabs/argonaut/pkg/orchestrator"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
)

// report is the stable JSON shape printed to stdout.
type report struct {
	Passed   bool     `json:"passed"`
	Failures []string `json:"failures"`
	RunID    string   `json:"run_id"`
	Repo     string   `json:"repo"`
	BuildID  string   `json:"build_id"`
}

func main() {
	fs := flag.NewFlagSet("argonaut-determinism", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to .argonaut/project.yaml (default: ./.argonaut/project.yaml)")
	bundleRoot := fs.String("bundle", "", "Path to the bundle directory (overrides project.yaml bundle_root)")
	repo := fs.String("repo", "", "Repository identifier, e.g. acme/app (overrides project.yaml repo)")
	buildID := fs.String("build-id", "", "Build identifier for this run")
	topN := fs.Int("top-n", 0, "Number of top findings to act on (overrides project.yaml top_n)")
	attempt := fs.Int("attempt", 1, "Attempt number for action idempotency")
	failFast := fs.Bool("fail-fast", false, "Stop at the first divergence instead of collecting all failures")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	showVersion := fs.Bool("version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `argonaut-determinism runs the pipeline twice and diffs the results.

Usage:
  argonaut-determinism [options]

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  argonaut-determinism --bundle ./bundle --repo acme/app --build-id build-42
  argonaut-determinism --bundle ./bundle --repo acme/app --build-id build-42 --fail-fast
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	ui.InitColors(*noColor)

	if *showVersion {
		fmt.Printf("argonaut-determinism version %s (%s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		internalerrors.FatalError(internalerrors.NewConfigError(
			"Cannot load project configuration",
			err.Error(),
			"Run argonaut-determinism with --bundle/--repo, or create .argonaut/project.yaml",
			err,
		), true)
	}

	if *bundleRoot == "" {
		*bundleRoot = cfg.BundleRoot
	}
	if *repo == "" {
		*repo = cfg.Repo
	}
	if *topN <= 0 {
		*topN = cfg.TopN
	}
	if *buildID == "" {
		internalerrors.FatalError(internalerrors.NewInputError(
			"Missing required flag",
			"--build-id is required",
			"Pass --build-id <id>, e.g. --build-id build-42",
		), true)
	}

	runID := fmt.Sprintf("determinism-%s-%s", *buildID, time.Now().UTC().Format("20060102T150405"))

	req := orchestrator.RunRequest{
		BundleRoot:  *bundleRoot,
		Repo:        *repo,
		BuildID:     *buildID,
		RunID:       runID,
		CreatedAtMS: time.Now().UnixMilli(),
		TopN:        *topN,
		Attempt:     *attempt,
	}

	ui.Header("Running determinism check")

	result, err := determinism.Check(context.Background(), req, *failFast)
	if err != nil {
		internalerrors.FatalError(internalerrors.NewInternalError(
			"Determinism check failed to run",
			err.Error(),
			"Check the bundle directory and run again",
			err,
		), true)
	}

	out := report{
		Passed:   result.Passed,
		Failures: result.Failures,
		RunID:    runID,
		Repo:     *repo,
		BuildID:  *buildID,
	}

	if err := output.JSON(out); err != nil {
		internalerrors.FatalError(err, true)
	}

	if !result.Passed {
		ui.Warning(fmt.Sprintf("determinism check found %d divergence(s)", len(result.Failures)))
		os.Exit(1)
	}
	ui.Success("determinism check passed: two independent runs produced identical state")
}
