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

// Package identity produces stable, content-addressed identifiers.
//
// Every entity in the pipeline is keyed by the SHA-256 hash of a canonical
// JSON serialization of its defining fields: object keys sorted
// lexicographically at every depth, arrays preserved in input order, and
// numbers formatted with the shortest round-trip representation so the same
// logical value always serializes to the same bytes regardless of map
// iteration order, locale, or platform.
package identity
