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

// Package action builds idempotent dry-run action payloads (ticket
// creation, chat summary/thread notification) and enforces the
// idempotency-key execution model: a duplicate idempotencyKey is reported
// as SKIPPED_DUPLICATE rather than overwriting the stored document, and
// anything other than dry-run execution is rejected outright.
package action
