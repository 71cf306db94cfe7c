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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemClient_BulkUpsertAndGetByID(t *testing.T) {
	c := NewMemClient()
	ctx := context.Background()

	report, err := c.BulkUpsert(ctx, "findings", []Document{
		{ID: "f1", Source: map[string]any{"findingId": "f1"}},
	}, BulkOptions{})
	require.NoError(t, err)
	assert.Len(t, report.Items, 1)
	assert.True(t, report.Items[0].Success)

	doc, err := c.GetByID(ctx, "findings", "f1")
	require.NoError(t, err)
	assert.Equal(t, "f1", doc["findingId"])
}

func TestMemClient_GetByID_MissingReturnsNilNoError(t *testing.T) {
	c := NewMemClient()
	doc, err := c.GetByID(context.Background(), "findings", "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemClient_List_SortedByID(t *testing.T) {
	c := NewMemClient()
	ctx := context.Background()
	_, err := c.BulkUpsert(ctx, "findings", []Document{
		{ID: "z"}, {ID: "a"}, {ID: "m"},
	}, BulkOptions{})
	require.NoError(t, err)

	docs, err := c.List(ctx, "findings")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "z"}, idsOf(docs))
}

func TestMemClient_FailIDs(t *testing.T) {
	c := NewMemClient()
	c.FailIDs = map[string]bool{"bad": true}
	ctx := context.Background()

	report, err := c.BulkUpsert(ctx, "findings", []Document{
		{ID: "bad", Source: map[string]any{}},
		{ID: "good", Source: map[string]any{}},
	}, BulkOptions{})
	require.NoError(t, err)
	require.Len(t, report.Items, 2)

	byID := map[string]ItemResult{}
	for _, item := range report.Items {
		byID[item.ID] = item
	}
	assert.False(t, byID["bad"].Success)
	assert.True(t, byID["good"].Success)

	doc, err := c.GetByID(ctx, "findings", "bad")
	require.NoError(t, err)
	assert.Nil(t, doc, "failed document must not be stored")
}

func TestMemClient_ThrowOnBulk(t *testing.T) {
	c := NewMemClient()
	c.ThrowOnBulk = true

	_, err := c.BulkUpsert(context.Background(), "findings", []Document{{ID: "a"}}, BulkOptions{})
	require.Error(t, err)
}

func TestMemClient_DeleteByRunID(t *testing.T) {
	c := NewMemClient()
	ctx := context.Background()
	_, err := c.BulkUpsert(ctx, "findings", []Document{
		{ID: "f1", Source: map[string]any{"runId": "run-1"}},
		{ID: "f2", Source: map[string]any{"runId": "run-2"}},
	}, BulkOptions{})
	require.NoError(t, err)

	counts, err := c.DeleteByRunID(ctx, "run-1", []string{"findings"})
	require.NoError(t, err)
	assert.Equal(t, 1, counts["findings"])

	docs, err := c.List(ctx, "findings")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "f2", docs[0].ID)
}

func TestMemClient_ClosedRejectsOperations(t *testing.T) {
	c := NewMemClient()
	require.NoError(t, c.Close())

	_, err := c.GetByID(context.Background(), "findings", "f1")
	require.Error(t, err)
}
