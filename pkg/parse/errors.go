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

import "fmt"

// Code is one of the closed parser error codes.
type Code string

const (
	// MalformedJSON means the input bytes are not valid JSON.
	MalformedJSON Code = "MALFORMED_JSON"
	// UnsupportedVersion means the document declares a schema/format
	// version this parser does not understand.
	UnsupportedVersion Code = "UNSUPPORTED_VERSION"
	// InvalidField means a required field was present but had the wrong
	// shape (wrong JSON type, empty required string, etc).
	InvalidField Code = "INVALID_FIELD"
)

// Error is the typed error every parser returns on failure.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
