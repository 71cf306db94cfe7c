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

// EnvelopeMeta carries the run-scoping fields every tool-call envelope
// reports, regardless of outcome.
type EnvelopeMeta struct {
	Repo       string
	BuildID    string
	RunID      string
	StartedAt  int64
	FinishedAt int64
}

// Envelope is the closed response shape every tool call returns.
type Envelope struct {
	Status     string
	Errors     []string
	Meta       EnvelopeMeta
	Data       any
}

const (
	EnvelopeOK    = "OK"
	EnvelopeError = "ERROR"
)

// NewEnvelope builds a successful envelope.
func NewEnvelope(meta EnvelopeMeta, data any) Envelope {
	return Envelope{Status: EnvelopeOK, Meta: meta, Data: data}
}

// NewErrorEnvelope builds a failed envelope; data is omitted.
func NewErrorEnvelope(meta EnvelopeMeta, errs []string) Envelope {
	return Envelope{Status: EnvelopeError, Errors: errs, Meta: meta}
}
