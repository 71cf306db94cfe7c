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

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemClient is an in-memory Client implementation with identical semantics
// to HTTPClient, used by tests and by the determinism harness. It supports
// fault injection via FailIDs (documents that fail bulk upsert without being
// stored) and ThrowOnBulk (the whole call raises a transport-level error).
type MemClient struct {
	mu     sync.RWMutex
	closed bool

	// docs is keyed by index, then by document ID.
	docs map[string]map[string]map[string]any

	// FailIDs, when set, lists document IDs that fail bulk upsert with a
	// per-item error instead of being stored.
	FailIDs map[string]bool

	// ThrowOnBulk, when true, makes every BulkUpsert call return a
	// transport-level error without storing anything.
	ThrowOnBulk bool
}

// NewMemClient returns an empty in-memory client.
func NewMemClient() *MemClient {
	return &MemClient{docs: map[string]map[string]map[string]any{}}
}

func (c *MemClient) BulkUpsert(ctx context.Context, index string, docs []Document, opts BulkOptions) (*BulkReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("docstore: client is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.ThrowOnBulk {
		return nil, fmt.Errorf("docstore: injected bulk transport failure")
	}

	chunks := PreSortAndChunk(docs, opts.ChunkSize)
	report := &BulkReport{HTTPCalls: len(chunks)}

	if c.docs[index] == nil {
		c.docs[index] = map[string]map[string]any{}
	}

	for _, chunk := range chunks {
		for _, doc := range chunk {
			if c.FailIDs[doc.ID] {
				report.Items = append(report.Items, ItemResult{ID: doc.ID, Status: 500, Success: false, Error: "injected failure"})
				continue
			}
			c.docs[index][doc.ID] = doc.Source
			report.Items = append(report.Items, ItemResult{ID: doc.ID, Status: 200, Success: true})
		}
	}
	return report, nil
}

func (c *MemClient) GetByID(ctx context.Context, index, id string) (map[string]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("docstore: client is closed")
	}
	byID, ok := c.docs[index]
	if !ok {
		return nil, nil
	}
	doc, ok := byID[id]
	if !ok {
		return nil, nil
	}
	return doc, nil
}

func (c *MemClient) List(ctx context.Context, index string) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("docstore: client is closed")
	}
	byID := c.docs[index]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, Document{ID: id, Source: byID[id]})
	}
	return out, nil
}

func (c *MemClient) DeleteByRunID(ctx context.Context, runID string, indexes []string) (map[string]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("docstore: client is closed")
	}

	sorted := make([]string, len(indexes))
	copy(sorted, indexes)
	sort.Strings(sorted)

	counts := map[string]int{}
	for _, index := range sorted {
		byID := c.docs[index]
		var deleted int
		for id, src := range byID {
			if runVal, _ := src["runId"].(string); runVal == runID {
				delete(byID, id)
				deleted++
			}
		}
		counts[index] = deleted
	}
	return counts, nil
}

func (c *MemClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Seed directly stores a document, bypassing bulk validation. Intended for
// test setup only.
func (c *MemClient) Seed(index string, doc Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.docs[index] == nil {
		c.docs[index] = map[string]map[string]any{}
	}
	c.docs[index][doc.ID] = doc.Source
}
