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

package action

import (
	"context"
	"fmt"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
	"github.com/whiskeylabs/argonaut/pkg/mapping"
)

// ActionsIndex is the document store index actions are written to.
const ActionsIndex = mapping.IndexActions

// Generator persists dry-run action documents and enforces the
// idempotency-key execution model.
type Generator struct {
	Client docstore.Client
}

// Request carries the caller's intent for one action generation call.
type Request struct {
	ActionID       string
	Type           string
	Repo           string
	BuildID        string
	FindingIDs     []string
	IdempotencyKey string
	DryRun         bool
	Attempt        int
	Payload        map[string]any
}

// Generate runs the common execution model shared by ticket and chat
// actions: dry-run enforcement, attempt validation, and idempotency-key
// deduplication against already-stored actions.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if !req.DryRun {
		return nil, &Error{Code: ErrNotDryRun, Message: "live action execution is not supported; dryRun must be true"}
	}
	if req.Attempt <= 0 {
		return nil, &Error{Code: ErrInvalidAttempt, Message: fmt.Sprintf("attempt must be a positive integer, got %d", req.Attempt)}
	}

	hash, err := payloadHash(req.Payload)
	if err != nil {
		return nil, err
	}

	existing, err := g.findByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Result{
			ActionID:       existing.ActionID,
			IdempotencyKey: existing.IdempotencyKey,
			Status:         StatusSkippedDup,
			Duplicate:      true,
			Attempt:        req.Attempt,
			PayloadHash:    existing.PayloadHash,
			Payload:        existing.Payload,
		}, nil
	}

	doc := Document{
		ActionID:        req.ActionID,
		Type:            req.Type,
		Repo:            req.Repo,
		BuildID:         req.BuildID,
		FindingIDs:      sortedStrings(req.FindingIDs),
		IdempotencyKey:  req.IdempotencyKey,
		PayloadHash:     hash,
		TemplateVersion: TemplateVersion,
		Attempt:         req.Attempt,
		Status:          StatusDryRunReady,
		Payload:         req.Payload,
	}

	source, err := documentToSource(doc)
	if err != nil {
		return nil, err
	}

	bulkReport, err := g.Client.BulkUpsert(ctx, ActionsIndex, []docstore.Document{{ID: doc.ActionID, Source: source}}, docstore.BulkOptions{})
	if err != nil {
		return nil, err
	}
	for _, item := range bulkReport.Items {
		if item.ID == doc.ActionID && !item.Success {
			return nil, &Error{Code: "E_ACTION_WRITE_FAILED", Message: item.Error}
		}
	}

	return &Result{
		ActionID:       doc.ActionID,
		IdempotencyKey: doc.IdempotencyKey,
		Status:         StatusDryRunReady,
		Duplicate:      false,
		Attempt:        doc.Attempt,
		PayloadHash:    doc.PayloadHash,
		Payload:        doc.Payload,
	}, nil
}

// findByIdempotencyKey looks up a stored action with a single GetByID call
// on key; actionId always equals idempotencyKey by construction, so the
// document ID is the key and no index scan is made.
func (g *Generator) findByIdempotencyKey(ctx context.Context, key string) (*Document, error) {
	source, err := g.Client.GetByID(ctx, ActionsIndex, key)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, nil
	}
	return documentFromSource(source)
}

func documentToSource(d Document) (map[string]any, error) {
	return map[string]any{
		"actionId":        d.ActionID,
		"type":            d.Type,
		"repo":            d.Repo,
		"buildId":         d.BuildID,
		"findingIds":      toAnySlice(d.FindingIDs),
		"idempotencyKey":  d.IdempotencyKey,
		"payloadHash":     d.PayloadHash,
		"templateVersion": d.TemplateVersion,
		"attempt":         d.Attempt,
		"status":          d.Status,
		"payload":         d.Payload,
	}, nil
}

func documentFromSource(source map[string]any) (*Document, error) {
	d := &Document{}
	if v, ok := source["actionId"].(string); ok {
		d.ActionID = v
	}
	if v, ok := source["type"].(string); ok {
		d.Type = v
	}
	if v, ok := source["repo"].(string); ok {
		d.Repo = v
	}
	if v, ok := source["buildId"].(string); ok {
		d.BuildID = v
	}
	if v, ok := source["idempotencyKey"].(string); ok {
		d.IdempotencyKey = v
	}
	if v, ok := source["payloadHash"].(string); ok {
		d.PayloadHash = v
	}
	if v, ok := source["templateVersion"].(string); ok {
		d.TemplateVersion = v
	}
	if v, ok := source["status"].(string); ok {
		d.Status = v
	}
	switch v := source["attempt"].(type) {
	case int:
		d.Attempt = v
	case float64:
		d.Attempt = int(v)
	}
	if v, ok := source["payload"].(map[string]any); ok {
		d.Payload = v
	}
	if v, ok := source["findingIds"].([]any); ok {
		for _, id := range v {
			if s, ok := id.(string); ok {
				d.FindingIDs = append(d.FindingIDs, s)
			}
		}
	}
	return d, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
