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
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whiskeylabs/argonaut/pkg/docstore"
)

func TestBootstrap_IsIdempotent(t *testing.T) {
	client := docstore.NewMemClient()
	ctx := context.Background()
	contracts := Contracts()

	require.NoError(t, Bootstrap(ctx, client, contracts))
	require.NoError(t, Bootstrap(ctx, client, contracts))
}

func TestBootstrap_DetectsDrift(t *testing.T) {
	client := docstore.NewMemClient()
	ctx := context.Background()
	contracts := Contracts()

	require.NoError(t, Bootstrap(ctx, client, contracts))

	drifted := contracts[IndexFindings]
	drifted.Fields = map[string]Field{"onlyField": {Type: TypeString}}
	contracts[IndexFindings] = drifted

	err := Bootstrap(ctx, client, contracts)
	require.Error(t, err)

	var driftErr *DriftError
	require.ErrorAs(t, err, &driftErr)
	require.Equal(t, IndexFindings, driftErr.Index)
}
