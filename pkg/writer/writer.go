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

package writer

import (
	"context"
	"sort"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
)

// FailureCode is one of the closed writer error codes.
type FailureCode string

const (
	MissingRequiredID    FailureCode = "MISSING_REQUIRED_ID"
	IDMismatch           FailureCode = "ID_MISMATCH"
	MissingRequiredField FailureCode = "MISSING_REQUIRED_FIELD"
	BulkItemFailed       FailureCode = "BULK_ITEM_FAILED"
)

// Failure is one document's validation or bulk-transport failure.
type Failure struct {
	ID      string
	Code    FailureCode
	Message string
}

// Report is the outcome of one Writer.Write call.
type Report struct {
	Attempted   int
	Succeeded   int
	Failed      int
	UpsertedIDs []string
	Failures    []Failure
}

// Writer validates and bulk-upserts documents into one index.
type Writer struct {
	Index   string
	IDField string

	// ComputeID derives the expected ID from a document's defining fields.
	ComputeID func(doc map[string]any) (string, error)

	// RequiredFields lists additional top-level fields that must be
	// present (and non-nil) beyond IDField.
	RequiredFields []string

	Client docstore.Client
}

// Write validates docs in input order, then hands every document that
// passed pre-validation to the bulk client in a single call. If every
// document fails pre-validation, no bulk call is issued.
func (w *Writer) Write(ctx context.Context, docs []map[string]any, opts docstore.BulkOptions) (*Report, error) {
	report := &Report{Attempted: len(docs)}

	type validDoc struct {
		id     string
		source map[string]any
	}
	var valid []validDoc

	for _, doc := range docs {
		rawID, ok := doc[w.IDField]
		id, _ := rawID.(string)
		if !ok || id == "" {
			report.Failures = append(report.Failures, Failure{Code: MissingRequiredID, Message: "missing required id field " + w.IDField})
			continue
		}

		expected, err := w.ComputeID(doc)
		if err != nil {
			report.Failures = append(report.Failures, Failure{ID: id, Code: IDMismatch, Message: err.Error()})
			continue
		}
		if expected != id {
			report.Failures = append(report.Failures, Failure{ID: id, Code: IDMismatch, Message: "body." + w.IDField + " does not match the computed id"})
			continue
		}

		if missing := firstMissingField(doc, w.RequiredFields); missing != "" {
			report.Failures = append(report.Failures, Failure{ID: id, Code: MissingRequiredField, Message: "missing required field " + missing})
			continue
		}

		valid = append(valid, validDoc{id: id, source: doc})
	}

	report.Failed = len(report.Failures)

	if len(valid) == 0 {
		return report, nil
	}

	bulkDocs := make([]docstore.Document, len(valid))
	for i, v := range valid {
		bulkDocs[i] = docstore.Document{ID: v.id, Source: v.source}
	}

	bulkReport, err := w.Client.BulkUpsert(ctx, w.Index, bulkDocs, opts)
	if err != nil {
		return report, err
	}

	itemByID := map[string]docstore.ItemResult{}
	for _, item := range bulkReport.Items {
		itemByID[item.ID] = item
	}

	for _, v := range valid {
		item, ok := itemByID[v.id]
		if ok && item.Success {
			report.Succeeded++
			report.UpsertedIDs = append(report.UpsertedIDs, v.id)
			continue
		}
		msg := "bulk item failed"
		if ok && item.Error != "" {
			msg = item.Error
		}
		report.Failed++
		report.Failures = append(report.Failures, Failure{ID: v.id, Code: BulkItemFailed, Message: msg})
	}

	sort.Strings(report.UpsertedIDs)
	return report, nil
}

func firstMissingField(doc map[string]any, fields []string) string {
	for _, f := range fields {
		v, ok := doc[f]
		if !ok || v == nil {
			return f
		}
		if s, isStr := v.(string); isStr && s == "" {
			return f
		}
	}
	return ""
}
