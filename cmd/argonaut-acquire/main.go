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

// Command argonaut-acquire runs one full acquire -> enrich -> score -> act
// pass over a bundle directory against a document store, and prints the
// resulting run envelope as JSON.
//
// Usage:
//
//	argonaut-acquire --bundle ./bundle --repo acme/app --build-id build-42
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/whiskeylabs/argonaut/internal/config"
	internalerrors "github.com/whiskeylabs/argonaut/internal/errors"
	"github.com/whiskeylabs/argonaut/internal/output"
	"github.com/whiskeylabs/argonaut/internal/ui"
	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/orchestrator"
	"github.com/whiskeylabs/argonaut/pkg/runlog"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	fs := flag.NewFlagSet("argonaut-acquire", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to .argonaut/project.yaml (default: ./.argonaut/project.yaml)")
	bundleRoot := fs.String("bundle", "", "Path to the bundle directory (overrides project.yaml bundle_root)")
	repo := fs.String("repo", "", "Repository identifier, e.g. acme/app (overrides project.yaml repo)")
	buildID := fs.String("build-id", "", "Build identifier for this run")
	runID := fs.String("run-id", "", "Run identifier (default: <build-id>-<UTC start time>; not derived from the bundle)")
	topN := fs.Int("top-n", 0, "Number of top findings to act on (overrides project.yaml top_n)")
	attempt := fs.Int("attempt", 1, "Attempt number for action idempotency")
	jsonOut := fs.Bool("json", true, "Print the run envelope as JSON")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	showVersion := fs.Bool("version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `argonaut-acquire runs one full acquire -> enrich -> score -> act pass.

Usage:
  argonaut-acquire [options]

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  argonaut-acquire --bundle ./bundle --repo acme/app --build-id build-42
  argonaut-acquire --bundle ./bundle --repo acme/app --build-id build-42 --attempt 2

Environment Variables:
  ES_URL       Document store base URL
  ES_API_KEY   Document store API key
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	ui.InitColors(*noColor)

	if *showVersion {
		fmt.Printf("argonaut-acquire version %s (%s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		internalerrors.FatalError(internalerrors.NewConfigError(
			"Cannot load project configuration",
			err.Error(),
			"Run argonaut-acquire with --bundle/--repo, or create .argonaut/project.yaml",
			err,
		), *jsonOut)
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
		), *jsonOut)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	client := docstore.NewHTTPClient(docstore.HTTPClientConfig{
		BaseURL: cfg.DocStore.URL,
		APIKey:  cfg.DocStore.APIKey,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warn("acquire.signal", "signal", sig.String())
		cancel()
	}()

	effectiveRunID := *runID
	if effectiveRunID == "" {
		effectiveRunID = fmt.Sprintf("%s-%s", *buildID, time.Now().UTC().Format("20060102T150405"))
	}

	orch := &orchestrator.Orchestrator{
		Client: client,
		Log:    runlog.NewLogger(client, logger),
	}

	logger.Info("acquire.starting", "repo", *repo, "build_id", *buildID, "run_id", effectiveRunID, "bundle", *bundleRoot)

	result, err := orch.Run(ctx, orchestrator.RunRequest{
		BundleRoot:  *bundleRoot,
		Repo:        *repo,
		BuildID:     *buildID,
		RunID:       effectiveRunID,
		CreatedAtMS: time.Now().UnixMilli(),
		TopN:        *topN,
		Attempt:     *attempt,
	})
	if err != nil {
		internalerrors.FatalError(internalerrors.NewInternalError(
			"Acquire run failed",
			err.Error(),
			"Check the bundle directory and document store connectivity",
			err,
		), *jsonOut)
	}

	meta := orchestrator.EnvelopeMeta{Repo: *repo, BuildID: *buildID, RunID: result.RunID}

	var failed []string
	for _, trace := range result.Traces {
		if trace.Status == orchestrator.TraceFailed {
			failed = append(failed, fmt.Sprintf("%s: %s", trace.Name, trace.Message))
		}
	}

	var envelope orchestrator.Envelope
	if len(failed) == 0 {
		envelope = orchestrator.NewEnvelope(meta, result)
	} else {
		envelope = orchestrator.NewErrorEnvelope(meta, failed)
		envelope.Data = result
	}

	if *jsonOut {
		if err := output.JSON(envelope); err != nil {
			internalerrors.FatalError(err, true)
		}
	}

	if len(failed) > 0 {
		ui.Warning("acquire run completed with stage failures")
		os.Exit(1)
	}
	ui.Success("acquire run completed")
}
