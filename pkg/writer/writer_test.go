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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
)

func echoIDWriter(client docstore.Client) *Writer {
	return &Writer{
		Index:   "findings",
		IDField: "findingId",
		ComputeID: func(doc map[string]any) (string, error) {
			id, _ := doc["computedId"].(string)
			return id, nil
		},
		RequiredFields: []string{"repo"},
		Client:         client,
	}
}

func TestWrite_MissingRequiredID(t *testing.T) {
	w := echoIDWriter(docstore.NewMemClient())
	report, err := w.Write(context.Background(), []map[string]any{{"repo": "acme"}}, docstore.BulkOptions{})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, MissingRequiredID, report.Failures[0].Code)
}

func TestWrite_IDMismatch(t *testing.T) {
	w := echoIDWriter(docstore.NewMemClient())
	report, err := w.Write(context.Background(), []map[string]any{
		{"findingId": "f1", "computedId": "f2", "repo": "acme"},
	}, docstore.BulkOptions{})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, IDMismatch, report.Failures[0].Code)
}

func TestWrite_MissingRequiredField(t *testing.T) {
	w := echoIDWriter(docstore.NewMemClient())
	report, err := w.Write(context.Background(), []map[string]any{
		{"findingId": "f1", "computedId": "f1"},
	}, docstore.BulkOptions{})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, MissingRequiredField, report.Failures[0].Code)
}

func TestWrite_SkipsBulkWhenAllFailPreValidation(t *testing.T) {
	client := docstore.NewMemClient()
	w := echoIDWriter(client)
	report, err := w.Write(context.Background(), []map[string]any{
		{"repo": "acme"},
	}, docstore.BulkOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Succeeded)

	docs, err := client.List(context.Background(), "findings")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestWrite_BulkItemFailureMapped(t *testing.T) {
	client := docstore.NewMemClient()
	client.FailIDs = map[string]bool{"f1": true}
	w := echoIDWriter(client)

	report, err := w.Write(context.Background(), []map[string]any{
		{"findingId": "f1", "computedId": "f1", "repo": "acme"},
		{"findingId": "f2", "computedId": "f2", "repo": "acme"},
	}, docstore.BulkOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	var failure Failure
	for _, f := range report.Failures {
		if f.ID == "f1" {
			failure = f
		}
	}
	assert.Equal(t, BulkItemFailed, failure.Code)
}

func TestWrite_RerunReplacesDocumentFully(t *testing.T) {
	client := docstore.NewMemClient()
	w := echoIDWriter(client)
	ctx := context.Background()

	_, err := w.Write(ctx, []map[string]any{
		{"findingId": "f1", "computedId": "f1", "repo": "acme", "extra": "v1"},
	}, docstore.BulkOptions{})
	require.NoError(t, err)

	_, err = w.Write(ctx, []map[string]any{
		{"findingId": "f1", "computedId": "f1", "repo": "acme"},
	}, docstore.BulkOptions{})
	require.NoError(t, err)

	doc, err := client.GetByID(ctx, "findings", "f1")
	require.NoError(t, err)
	_, hasExtra := doc["extra"]
	assert.False(t, hasExtra, "rerun must fully replace the document, not patch it")
}
