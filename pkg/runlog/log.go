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

package runlog

import (
	"context"
	"log/slog"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/identity"
)

const (
	IndexRuns     = "argonaut-runs"
	IndexTaskLogs = "argonaut-task-logs"
)

const (
	RunRunning   = "RUNNING"
	RunSucceeded = "SUCCEEDED"
	RunFailed    = "FAILED"
	RunCancelled = "CANCELLED"
)

// Logger writes run headers and task logs. Every method absorbs its own
// failure: a logging error is recorded via slog and never returned to the
// caller.
type Logger struct {
	Client docstore.Client
	Log    *slog.Logger
}

// NewLogger returns a Logger; a nil slog.Logger falls back to slog.Default.
func NewLogger(client docstore.Client, log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{Client: client, Log: log}
}

// UpsertRun writes (or overwrites) the run header document for runID.
func (l *Logger) UpsertRun(ctx context.Context, runID, repo, buildID, status string, startedAtMS, finishedAtMS int64) {
	source := map[string]any{
		"runId":      runID,
		"repo":       repo,
		"buildId":    buildID,
		"status":     status,
		"startedAt":  startedAtMS,
		"finishedAt": finishedAtMS,
	}
	if _, err := l.Client.BulkUpsert(ctx, IndexRuns, []docstore.Document{{ID: runID, Source: source}}, docstore.BulkOptions{}); err != nil {
		l.Log.Error("runlog.run.write_failed", "runId", runID, "err", err)
	}
}

// TaskEvent is one stage-level log event.
type TaskEvent struct {
	RunID     string
	Stage     string
	TaskKey   string
	Status    string
	Message   string
	Stack     string
	Params    map[string]any
	Timestamp any
}

// WriteTask persists one task-log document, defensively truncated.
func (l *Logger) WriteTask(ctx context.Context, ev TaskEvent) {
	taskID, err := identity.TaskID(ev.RunID, ev.Stage, ev.TaskKey)
	if err != nil {
		l.Log.Error("runlog.task.id_failed", "runId", ev.RunID, "stage", ev.Stage, "err", err)
		return
	}

	source := map[string]any{
		"taskId":    taskID,
		"runId":     ev.RunID,
		"stage":     ev.Stage,
		"taskKey":   ev.TaskKey,
		"status":    ev.Status,
		"message":   TruncateMessage(ev.Message),
		"stack":     TruncateStack(ev.Stack),
		"params":    NormalizeParams(ev.Params),
		"timestamp": NormalizeTimestamp(ev.Timestamp),
	}
	if _, err := l.Client.BulkUpsert(ctx, IndexTaskLogs, []docstore.Document{{ID: taskID, Source: source}}, docstore.BulkOptions{}); err != nil {
		l.Log.Error("runlog.task.write_failed", "runId", ev.RunID, "stage", ev.Stage, "err", err)
	}
}
