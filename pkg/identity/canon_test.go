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

package identity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalJSON_KeyOrderIndependent(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": 1, "y": 2}}
	b := map[string]any{"c": map[string]any{"y": 2, "z": 1}, "a": 2, "b": 1}

	aBytes, err := CanonicalJSON(a)
	require.NoError(t, err)
	bBytes, err := CanonicalJSON(b)
	require.NoError(t, err)

	require.Equal(t, string(aBytes), string(bBytes))
	require.Equal(t, `{"a":2,"b":1,"c":{"y":2,"z":1}}`, string(aBytes))
}

func TestCanonicalJSON_ArrayOrderPreserved(t *testing.T) {
	out, err := CanonicalJSON([]any{3, 1, 2})
	require.NoError(t, err)
	require.Equal(t, "[3,1,2]", string(out))
}

func TestCanonicalJSON_RejectsNonFiniteFloat(t *testing.T) {
	_, err := CanonicalJSON(math.NaN())
	require.Error(t, err)

	_, err = CanonicalJSON(math.Inf(1))
	require.Error(t, err)
}

func TestCanonicalJSON_ShortestRoundTripFloat(t *testing.T) {
	out, err := CanonicalJSON(0.1)
	require.NoError(t, err)
	require.Equal(t, "0.1", string(out))
}

func TestHash_Deterministic(t *testing.T) {
	v := map[string]any{"repo": "acme/app", "buildId": "b1", "fingerprint": "f1"}

	h1, err := Hash(v)
	require.NoError(t, err)
	h2, err := Hash(v)
	require.NoError(t, err)

	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestHash_DifferentInputsDifferentHash(t *testing.T) {
	h1, err := Hash(map[string]any{"a": 1})
	require.NoError(t, err)
	h2, err := Hash(map[string]any{"a": 2})
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
}
