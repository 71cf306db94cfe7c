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

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemas_HasSixClosedTools(t *testing.T) {
	schemas := Schemas()
	require.Len(t, schemas, 6)
	for _, name := range []string{"acquire", "enrich", "score", "jira", "slack", "search"} {
		_, ok := schemas[name]
		assert.True(t, ok, "missing tool schema %s", name)
	}
}

func TestSchemas_PassCrossRuleValidation(t *testing.T) {
	violations := ValidateSchemas(Schemas())
	assert.Empty(t, violations)
}

func TestValidateSchemas_FlagsReadOnlyWithWriteIndices(t *testing.T) {
	schemas := map[string]ToolSchema{
		"search": {
			Name:         "search",
			AccessMode:   AccessReadOnly,
			WritePolicy:  WriteNone,
			WriteIndices: []string{"argonaut-findings"},
		},
	}
	violations := ValidateSchemas(schemas)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "no write indices")
}

func TestValidateSchemas_FlagsActionWriteOutsideActionsIndex(t *testing.T) {
	schemas := map[string]ToolSchema{
		"jira": {
			Name:         "jira",
			AccessMode:   AccessActionWrite,
			WritePolicy:  WriteActionsOnly,
			WriteIndices: []string{"argonaut-findings"},
		},
	}
	violations := ValidateSchemas(schemas)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "must write only")
}

func TestValidateSchemas_FlagsPipelineWriteWrongPolicy(t *testing.T) {
	schemas := map[string]ToolSchema{
		"score": {
			Name:        "score",
			AccessMode:  AccessPipelineWrite,
			WritePolicy: WriteActionsOnly,
		},
	}
	violations := ValidateSchemas(schemas)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "EPIC_PIPELINE_ONLY")
}

func TestValidateSchemas_ViolationsAreSorted(t *testing.T) {
	schemas := map[string]ToolSchema{
		"zzz_tool": {Name: "zzz_tool", AccessMode: "BOGUS"},
		"aaa_tool": {Name: "aaa_tool", AccessMode: "BOGUS"},
	}
	violations := ValidateSchemas(schemas)
	require.Len(t, violations, 2)
	assert.Contains(t, violations[0], "aaa_tool")
	assert.Contains(t, violations[1], "zzz_tool")
}
