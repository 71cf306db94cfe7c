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

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
)

// HTTPClientConfig configures HTTPClient. An empty BaseURL or APIKey is
// resolved from ES_URL or ES_API_KEY; Username and Password come from
// ES_USERNAME/ES_PASSWORD only when neither an API key nor a username is
// set; a zero Timeout becomes 30s. See ResolveHTTPClientConfig.
type HTTPClientConfig struct {
	BaseURL  string
	APIKey   string
	Username string
	Password string
	Timeout  time.Duration
}

// ResolveHTTPClientConfig fills unset fields from ES_URL, ES_API_KEY,
// ES_USERNAME, ES_PASSWORD, preferring API-key auth when both are present.
func ResolveHTTPClientConfig(cfg HTTPClientConfig) HTTPClientConfig {
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("ES_URL")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ES_API_KEY")
	}
	if cfg.APIKey == "" && cfg.Username == "" {
		cfg.Username = os.Getenv("ES_USERNAME")
		cfg.Password = os.Getenv("ES_PASSWORD")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

// HTTPClient is an Elasticsearch-compatible Client implementation.
type HTTPClient struct {
	cfg        HTTPClientConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	sleep      func(time.Duration)
}

// NewHTTPClient builds an HTTPClient wrapped in a circuit breaker so
// repeated transport failures short-circuit before exhausting the retry
// budget on every subsequent call.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	cfg = ResolveHTTPClientConfig(cfg)
	return &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "docstore-bulk",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		sleep: time.Sleep,
	}
}

func (c *HTTPClient) authHeader(req *http.Request) {
	switch {
	case c.cfg.APIKey != "":
		req.Header.Set("Authorization", "ApiKey "+c.cfg.APIKey)
	case c.cfg.Username != "":
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
}

func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	c.authHeader(req)
	result, err := c.breaker.Execute(func() (any, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

// BulkUpsert implements Client.BulkUpsert against /_bulk.
func (c *HTTPClient) BulkUpsert(ctx context.Context, index string, docs []Document, opts BulkOptions) (*BulkReport, error) {
	chunks := PreSortAndChunk(docs, opts.ChunkSize)
	report := &BulkReport{}

	for _, chunk := range chunks {
		items, calls, retries, err := c.bulkChunkWithRetry(ctx, index, chunk, opts)
		report.HTTPCalls += calls
		report.Retries += retries
		if err != nil {
			return report, err
		}
		report.Items = append(report.Items, items...)
	}
	return report, nil
}

func (c *HTTPClient) bulkChunkWithRetry(ctx context.Context, index string, chunk []Document, opts BulkOptions) ([]ItemResult, int, int, error) {
	body := buildBulkBody(index, chunk)

	var calls, retries int
	attempts := opts.RetryAttempts + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/_bulk", bytes.NewReader(body))
		if err != nil {
			return nil, calls, retries, err
		}
		req.Header.Set("Content-Type", "application/x-ndjson")

		resp, err := c.do(req)
		calls++
		if err != nil {
			if attempt < attempts-1 {
				retries++
				c.sleep(time.Duration(opts.RetryBackoffMs) * time.Millisecond)
				continue
			}
			return nil, calls, retries, fmt.Errorf("docstore: bulk transport error: %w", err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, calls, retries, fmt.Errorf("docstore: reading bulk response: %w", readErr)
		}

		if resp.StatusCode == http.StatusOK {
			return parseBulkResponse(respBody, chunk), calls, retries, nil
		}

		if isRetryableStatus(resp.StatusCode) && attempt < attempts-1 {
			retries++
			c.sleep(time.Duration(opts.RetryBackoffMs) * time.Millisecond)
			continue
		}

		return nil, calls, retries, fmt.Errorf("docstore: bulk request failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil, calls, retries, fmt.Errorf("docstore: bulk request exhausted retry attempts")
}

// buildBulkBody renders the NDJSON bulk frame: one {"index":{...}} action
// line followed by the source line, per document, in pre-sorted order.
func buildBulkBody(index string, chunk []Document) []byte {
	var buf bytes.Buffer
	for _, doc := range chunk {
		action := map[string]any{"index": map[string]any{"_index": index, "_id": doc.ID}}
		actionBytes, _ := json.Marshal(action)
		buf.Write(actionBytes)
		buf.WriteByte('\n')

		sourceBytes, _ := json.Marshal(doc.Source)
		buf.Write(sourceBytes)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// parseBulkResponse reads the /_bulk response items array positionally
// using gjson, matching each item back to the pre-sorted input document.
func parseBulkResponse(body []byte, chunk []Document) []ItemResult {
	items := gjson.GetBytes(body, "items")
	results := make([]ItemResult, 0, len(chunk))

	idx := 0
	items.ForEach(func(_, item gjson.Result) bool {
		indexResult := item.Get("index")
		status := int(indexResult.Get("status").Int())
		errMsg := indexResult.Get("error.reason").String()

		id := indexResult.Get("_id").String()
		if id == "" && idx < len(chunk) {
			id = chunk[idx].ID
		}

		results = append(results, ItemResult{
			ID:      id,
			Status:  status,
			Success: status >= 200 && status < 300,
			Error:   errMsg,
		})
		idx++
		return true
	})
	return results
}

func (c *HTTPClient) GetByID(ctx context.Context, index, id string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/_doc/%s", c.cfg.BaseURL, index, id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("docstore: get failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docstore: get error (status %d): %s", resp.StatusCode, string(body))
	}

	var source map[string]any
	if err := json.Unmarshal([]byte(gjson.GetBytes(body, "_source").Raw), &source); err != nil {
		return nil, fmt.Errorf("docstore: parse get response: %w", err)
	}
	return source, nil
}

func (c *HTTPClient) List(ctx context.Context, index string) ([]Document, error) {
	reqBody, _ := json.Marshal(map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"sort":  []any{map[string]any{"_id": "asc"}},
		"size":  10000,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s/_search", c.cfg.BaseURL, index), bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("docstore: search failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docstore: search error (status %d): %s", resp.StatusCode, string(body))
	}

	hits := gjson.GetBytes(body, "hits.hits")
	docs := make([]Document, 0, hits.Int())
	hits.ForEach(func(_, hit gjson.Result) bool {
		var source map[string]any
		_ = json.Unmarshal([]byte(hit.Get("_source").Raw), &source)
		docs = append(docs, Document{ID: hit.Get("_id").String(), Source: source})
		return true
	})
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (c *HTTPClient) DeleteByRunID(ctx context.Context, runID string, indexes []string) (map[string]int, error) {
	sorted := make([]string, len(indexes))
	copy(sorted, indexes)
	sort.Strings(sorted)

	counts := map[string]int{}
	for _, index := range sorted {
		reqBody, _ := json.Marshal(map[string]any{
			"query": map[string]any{"term": map[string]any{"runId": runID}},
		})
		url := fmt.Sprintf("%s/%s/_delete_by_query?conflicts=proceed&refresh=true", c.cfg.BaseURL, index)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.do(req)
		if err != nil {
			return nil, fmt.Errorf("docstore: delete_by_query failed for %s: %w", index, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("docstore: delete_by_query error for %s (status %d): %s", index, resp.StatusCode, string(body))
		}
		counts[index] = int(gjson.GetBytes(body, "deleted").Int())
	}
	return counts, nil
}

func (c *HTTPClient) Close() error {
	return nil
}
