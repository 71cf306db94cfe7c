// Copyright 2025 WhiskeyLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindingID_DoesNotDependOnCreatedAt(t *testing.T) {
	id1, err := FindingID("acme/app", "build-1", "RULE-A|lodash|4.17.20")
	require.NoError(t, err)
	id2, err := FindingID("acme/app", "build-1", "RULE-A|lodash|4.17.20")
	require.NoError(t, err)

	require.Equal(t, id1, id2)
}

func TestDependencyID_RootParent(t *testing.T) {
	id, err := DependencyID("acme/app", "build-1", "__root__", "lodash", "4.17.20", "runtime")
	require.NoError(t, err)
	require.Len(t, id, 64)
}

func TestIntelID_UppercasesCVE(t *testing.T) {
	require.Equal(t, "CVE-2024-1111", IntelID("cve-2024-1111"))
	require.Equal(t, "CVE-2024-1111", IntelID("CVE-2024-1111"))
}

func TestIdempotencyKey_OrderSensitive(t *testing.T) {
	k1, err := IdempotencyKey([2]string{"type", "JIRA_CREATE"}, [2]string{"findingId", "f1"})
	require.NoError(t, err)
	k2, err := IdempotencyKey([2]string{"findingId", "f1"}, [2]string{"type", "JIRA_CREATE"})
	require.NoError(t, err)

	require.NotEqual(t, k1, k2, "idempotency key must be sensitive to field order since it is a literal string hash")
}

func TestRunID_FallsBackToBundleID(t *testing.T) {
	require.Equal(t, "bundle-1", RunID("", "bundle-1"))
	require.Equal(t, "explicit-run", RunID("explicit-run", "bundle-1"))
}

func TestBundleID_Deterministic(t *testing.T) {
	entries := [][2]string{{"a.sarif", "aaa"}, {"b.sarif", "bbb"}}
	id1, err := BundleID(entries)
	require.NoError(t, err)
	id2, err := BundleID(entries)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}
