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

// Package pipeline implements the four pipeline stages — Acquire, Enrich,
// Score, Act — that together transform a bundle directory into ranked,
// explained findings and dry-run action payloads. Each stage is a pure
// function of the document store's contents at the time it runs, so
// rerunning a stage against identical inputs produces identical output.
package pipeline
