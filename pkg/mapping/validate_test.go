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

package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocumentAgainstIndex_StrictRejectsUnknownField(t *testing.T) {
	contract := threatIntelContract()
	violations := ValidateDocumentAgainstIndex(contract, map[string]any{
		"intelId":    "CVE-2024-1111",
		"cve":        "CVE-2024-1111",
		"kev":        true,
		"notAllowed": "x",
	})
	require := assert.New(t)
	require.Len(violations, 1)
	require.Equal(UnknownField, violations[0].Code)
	require.Equal("notAllowed", violations[0].Field)
}

func TestValidateDocumentAgainstIndex_TypeMismatch(t *testing.T) {
	contract := threatIntelContract()
	violations := ValidateDocumentAgainstIndex(contract, map[string]any{
		"intelId": "CVE-2024-1111",
		"cve":     "CVE-2024-1111",
		"kev":     "not-a-bool",
	})
	assert.Len(t, violations, 1)
	assert.Equal(t, TypeMismatch, violations[0].Code)
}

func TestValidateDocumentAgainstIndex_DynamicFalseAllowsUnknownTopLevel(t *testing.T) {
	contract := actionsContract()
	violations := ValidateDocumentAgainstIndex(contract, map[string]any{
		"actionId": "abc",
		"extra":    "anything goes",
	})
	assert.Empty(t, violations)
}

func TestValidateDocumentAgainstIndex_ContractUnchangedAfterValidation(t *testing.T) {
	contract := findingsContract()
	before := len(contract.Fields)
	ValidateDocumentAgainstIndex(contract, map[string]any{"unknown": "x"})
	assert.Equal(t, before, len(contract.Fields))
}

func TestValidateDocumentAgainstIndex_NestedObjectValidated(t *testing.T) {
	contract := findingsContract()
	violations := ValidateDocumentAgainstIndex(contract, map[string]any{
		"findingId": "f1",
		"context": map[string]any{
			"threat": map[string]any{
				"kev": "not-a-bool",
			},
		},
	})
	assert.Len(t, violations, 1)
	assert.Equal(t, TypeMismatch, violations[0].Code)
	assert.Equal(t, "context.threat.kev", violations[0].Field)
}
