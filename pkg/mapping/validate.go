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

import "fmt"

// ViolationCode is one of the closed mapping validation error codes.
type ViolationCode string

const (
	UnknownField ViolationCode = "UNKNOWN_FIELD"
	TypeMismatch ViolationCode = "TYPE_MISMATCH"
)

// Violation is one field-level validation failure.
type Violation struct {
	Code  ViolationCode
	Field string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Field)
}

// ValidateDocumentAgainstIndex enforces strict-mode rejections without
// mutating the contract. dynamic:false indices only check the type of
// fields the contract declares; unknown fields are accepted.
func ValidateDocumentAgainstIndex(contract IndexContract, doc map[string]any) []Violation {
	var violations []Violation
	validateObject("", contract.Fields, doc, contract.Dynamic == DynamicStrict, &violations)
	return violations
}

func validateObject(prefix string, fields map[string]Field, doc map[string]any, strict bool, violations *[]Violation) {
	for key, value := range doc {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		field, known := fields[key]
		if !known {
			if strict {
				*violations = append(*violations, Violation{Code: UnknownField, Field: path})
			}
			continue
		}
		validateValue(path, field, value, violations)
	}
}

func validateValue(path string, field Field, value any, violations *[]Violation) {
	if value == nil {
		return
	}
	switch field.Type {
	case TypeString:
		if _, ok := value.(string); !ok {
			*violations = append(*violations, Violation{Code: TypeMismatch, Field: path})
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			*violations = append(*violations, Violation{Code: TypeMismatch, Field: path})
		}
	case TypeInt:
		if !isIntLike(value) {
			*violations = append(*violations, Violation{Code: TypeMismatch, Field: path})
		}
	case TypeFloat:
		if !isNumeric(value) {
			*violations = append(*violations, Violation{Code: TypeMismatch, Field: path})
		}
	case TypeArray:
		items, ok := value.([]any)
		if !ok {
			*violations = append(*violations, Violation{Code: TypeMismatch, Field: path})
			return
		}
		if field.Items != nil {
			for i, item := range items {
				validateValue(fmt.Sprintf("%s[%d]", path, i), *field.Items, item, violations)
			}
		}
	case TypeObject:
		nested, ok := value.(map[string]any)
		if !ok {
			*violations = append(*violations, Violation{Code: TypeMismatch, Field: path})
			return
		}
		// A nested object is checked strictly (unknown keys rejected)
		// whenever its contract declares fields, whatever the host index's
		// dynamic policy; an object declared with no fields (e.g. action
		// payload bodies) is schema-free below this point.
		validateObject(path, field.Fields, nested, len(field.Fields) > 0, violations)
	}
}

func isIntLike(v any) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	default:
		return false
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	default:
		return false
	}
}
