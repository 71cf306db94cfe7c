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

package threatintel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func epssPtr(v float64) *float64 { return &v }

func TestLoadSeed_UppercasesAndSorts(t *testing.T) {
	intel, err := LoadSeed([]SeedEntry{
		{CVE: "cve-2024-2222", KEV: false, EPSS: epssPtr(0.26), Source: "seed"},
		{CVE: "cve-2024-1111", KEV: true, EPSS: epssPtr(0.91), Source: "seed"},
	})
	require.NoError(t, err)
	require.Len(t, intel, 2)
	assert.Equal(t, "CVE-2024-1111", intel[0].CVE)
	assert.Equal(t, "CVE-2024-1111", intel[0].IntelID)
	assert.Equal(t, "CVE-2024-2222", intel[1].CVE)
}

func TestLoadSeed_RejectsInvalidShape(t *testing.T) {
	_, err := LoadSeed([]SeedEntry{{CVE: "NOT-A-CVE"}})
	require.Error(t, err)
}

func TestValidateCVE(t *testing.T) {
	assert.True(t, ValidateCVE("CVE-2024-1111"))
	assert.True(t, ValidateCVE("CVE-2024-11111111"))
	assert.False(t, ValidateCVE("cve-2024-1111"))
	assert.False(t, ValidateCVE("CVE-24-1111"))
	assert.False(t, ValidateCVE("CVE-2024-111"))
}
