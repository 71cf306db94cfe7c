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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreSortAndChunk_SortsByID(t *testing.T) {
	docs := []Document{
		{ID: "c"}, {ID: "a"}, {ID: "b"},
	}
	chunks := PreSortAndChunk(docs, 10)
	assert.Len(t, chunks, 1)
	assert.Equal(t, []string{"a", "b", "c"}, idsOf(chunks[0]))
}

func TestPreSortAndChunk_RespectsChunkSize(t *testing.T) {
	docs := make([]Document, 1201)
	for i := range docs {
		docs[i] = Document{ID: fmt.Sprintf("id-%04d", i)}
	}
	chunks := PreSortAndChunk(docs, 500)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[1], 500)
	assert.Len(t, chunks[2], 201)
}

func TestPreSortAndChunk_DefaultSize(t *testing.T) {
	docs := make([]Document, 501)
	for i := range docs {
		docs[i] = Document{ID: fmt.Sprintf("id-%04d", i)}
	}
	chunks := PreSortAndChunk(docs, 0)
	assert.Len(t, chunks, 2)
}

func idsOf(docs []Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}
