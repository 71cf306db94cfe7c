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

package docstore

// retryableStatuses is the closed set of HTTP statuses the bulk client
// retries. Transport-level errors (no status at all) are retryable too; see
// httpclient.go. Anything else, including 4xx statuses like 400, fails
// immediately without consuming a retry attempt.
var retryableStatuses = map[int]bool{
	429: true,
	502: true,
	503: true,
	504: true,
}

func isRetryableStatus(status int) bool {
	return retryableStatuses[status]
}
