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

package bundle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// ObjectStore mirrors bundle artifacts to an S3-compatible endpoint under
// caller-chosen object keys (see MirrorFiles). It is optional: a nil *ObjectStore
// mirrors nothing, and Acquire never depends on one being configured.
type ObjectStore struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client
}

// NewObjectStore builds an ObjectStore against baseURL (e.g.
// https://minio.internal/argonaut-bundles). apiKey is sent as a bearer
// token; pass "" for endpoints that don't require auth.
func NewObjectStore(baseURL, apiKey string) *ObjectStore {
	return &ObjectStore{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// Put uploads the contents read from r to key, overwriting any existing
// object at that key.
func (o *ObjectStore) Put(ctx context.Context, key string, r io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, o.BaseURL+"/"+key, r)
	if err != nil {
		return fmt.Errorf("bundle: objectstore put %s: %w", key, err)
	}
	o.applyAuth(req)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bundle: objectstore put %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("bundle: objectstore put %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}

// Get downloads the object at key. The caller must close the returned
// ReadCloser.
func (o *ObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/"+key, nil)
	if err != nil {
		return nil, fmt.Errorf("bundle: objectstore get %s: %w", key, err)
	}
	o.applyAuth(req)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bundle: objectstore get %s: %w", key, err)
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("bundle: objectstore get %s: unexpected status %d", key, resp.StatusCode)
	}
	return resp.Body, nil
}

func (o *ObjectStore) applyAuth(req *http.Request) {
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}
}

// MirrorFiles uploads every raw file to the object store under prefix +
// relative path (plain concatenation, no separator inserted), stopping at
// the first failure. The key equals the manifest's ObjectKey
// (ObjectKeyPrefix/bundleId/artifacts/path) only when prefix is that key's
// directory part, trailing slash included. A nil store is a no-op, letting
// callers mirror only when one is configured.
func MirrorFiles(ctx context.Context, store *ObjectStore, prefix string, files []RawFile) error {
	if store == nil {
		return nil
	}
	for _, f := range files {
		key := prefix + f.Path
		if err := store.Put(ctx, key, bytes.NewReader(f.Bytes)); err != nil {
			return err
		}
	}
	return nil
}
