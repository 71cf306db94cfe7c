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

package docstore

import "context"

// DefaultChunkSize is the default number of documents per bulk request.
const DefaultChunkSize = 500

// Document is one ID-keyed JSON body bound for a specific index.
type Document struct {
	ID     string
	Source map[string]any
}

// BulkOptions configures one BulkUpsert call. Zero values resolve to the
// client's configured defaults (chunk size 500, no retries).
type BulkOptions struct {
	ChunkSize      int
	RetryAttempts  int
	RetryBackoffMs int
}

// ItemResult is the per-document outcome of one bulk request, matched
// positionally to the pre-sorted input.
type ItemResult struct {
	ID      string
	Status  int
	Success bool
	Error   string
}

// BulkReport summarizes one BulkUpsert call across all of its chunks.
type BulkReport struct {
	Items     []ItemResult
	Retries   int
	HTTPCalls int
}

// Client is the interface every document-store backend implements: an
// HTTP-bulk Elasticsearch-compatible client, and an in-memory double with
// identical semantics for tests.
type Client interface {
	// BulkUpsert pre-sorts docs lexicographically by ID, chunks them into
	// fixed-size batches, and upserts each batch. Chunking and ordering are
	// deterministic regardless of input order.
	BulkUpsert(ctx context.Context, index string, docs []Document, opts BulkOptions) (*BulkReport, error)

	// GetByID returns the stored document source, or nil if not found.
	GetByID(ctx context.Context, index, id string) (map[string]any, error)

	// List returns all documents in index, sorted by ID ascending.
	List(ctx context.Context, index string) ([]Document, error)

	// DeleteByRunID deletes every document carrying runId across the given
	// indexes (iterated in lexicographic order), returning a per-index
	// deleted count.
	DeleteByRunID(ctx context.Context, runID string, indexes []string) (map[string]int, error)

	// Close releases any resources held by the client.
	Close() error
}
