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

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSBOM_CycloneDX(t *testing.T) {
	doc := `{
	  "bomFormat": "CycloneDX",
	  "components": [{"purl": "pkg:npm/lodash@4.17.20", "name": "lodash", "version": "4.17.20"}]
	}`
	components, err := ParseSBOM([]byte(doc), "acme/app", "build-1")
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "pkg:npm/lodash@4.17.20", components[0].Purl)
	assert.Equal(t, ScopeRuntime, components[0].Scope)
	assert.NotEmpty(t, components[0].ComponentID)
}

func TestParseSBOM_SPDX(t *testing.T) {
	doc := `{
	  "spdxVersion": "SPDX-2.3",
	  "packages": [{
	    "name": "lodash",
	    "versionInfo": "4.17.20",
	    "externalRefs": [{"referenceCategory": "PACKAGE-MANAGER", "referenceType": "purl", "referenceLocator": "pkg:npm/lodash@4.17.20"}]
	  }]
	}`
	components, err := ParseSBOM([]byte(doc), "acme/app", "build-1")
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "pkg:npm/lodash@4.17.20", components[0].Purl)
	assert.Equal(t, "lodash", components[0].Name)
}

func TestParseSBOM_UnknownShapeYieldsEmpty(t *testing.T) {
	components, err := ParseSBOM([]byte(`{"foo": "bar"}`), "acme/app", "build-1")
	require.NoError(t, err)
	assert.Empty(t, components)
}

func TestParseSBOM_MalformedJSON(t *testing.T) {
	_, err := ParseSBOM([]byte("not json"), "acme/app", "build-1")
	require.Error(t, err)
}

func TestParseSBOM_DeterministicComponentID(t *testing.T) {
	doc := `{"bomFormat": "CycloneDX", "components": [{"name": "axios", "version": "1.7.0"}]}`
	c1, err := ParseSBOM([]byte(doc), "acme/app", "build-1")
	require.NoError(t, err)
	c2, err := ParseSBOM([]byte(doc), "acme/app", "build-1")
	require.NoError(t, err)
	assert.Equal(t, c1[0].ComponentID, c2[0].ComponentID)
}
