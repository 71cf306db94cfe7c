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

package reachability

import (
	"sort"
	"strings"

	"github.com/whiskeylabs/argonaut/pkg/identity"
)

// AnalysisVersion is the current reachability algorithm version; it is part
// of a record's identity so a future algorithm revision never collides with
// an earlier one for the same finding.
const AnalysisVersion = "1.0"

const rootNode = "__root__"

// Edge is the subset of a dependency edge the reachability engine needs.
type Edge struct {
	Parent  string
	Child   string
	Scope   string
}

// Record is the reachability decision for one finding.
type Record struct {
	ReachabilityID  string   `json:"reachabilityId"`
	FindingID       string   `json:"findingId"`
	Reachable       bool     `json:"reachable"`
	ConfidenceScore float64  `json:"confidenceScore"`
	Status          string   `json:"status"`
	Reason          string   `json:"reason"`
	EvidencePath    []string `json:"evidencePath"`
	Method          string   `json:"method"`
	AnalysisVersion string   `json:"analysisVersion"`
	ComputedAt      int64    `json:"computedAt"`
}

const (
	StatusReachable        = "REACHABLE"
	StatusInsufficientData = "INSUFFICIENT_DATA"

	methodBFS = "bfs_shortest_path"
)

// Compute runs the BFS reachability algorithm for one finding's target
// package against the supplied dependency edges. computedAtMS must be a
// deterministic value (never wall-clock time) so reruns stay byte-identical
// once the determinism harness strips variance fields as an added safeguard.
func Compute(findingID, targetPackage string, edges []Edge, computedAtMS int64) (*Record, error) {
	target := strings.ToLower(targetPackage)
	adjacency := buildAdjacency(edges)

	path, scopes, found := bfsShortestPath(adjacency, target)

	rec := &Record{
		FindingID:       findingID,
		Method:          methodBFS,
		AnalysisVersion: AnalysisVersion,
		ComputedAt:      computedAtMS,
	}

	if !found {
		rec.Reachable = false
		rec.Status = StatusInsufficientData
		rec.Reason = "no path found from __root__ to target package"
		rec.ConfidenceScore = 0
		rec.EvidencePath = nil
	} else {
		rec.Reachable = true
		rec.Status = StatusReachable
		rec.Reason = "shortest path found via dependency graph traversal"
		rec.EvidencePath = path
		rec.ConfidenceScore = confidenceFor(len(path), scopes)
	}

	id, err := identity.ReachabilityID(findingID, AnalysisVersion, map[string]any{
		"targetPackage": target,
		"reachable":     rec.Reachable,
		"evidencePath":  toAnySlice(rec.EvidencePath),
	})
	if err != nil {
		return nil, err
	}
	rec.ReachabilityID = id
	return rec, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// buildAdjacency keys children by lower-cased parent package name, sorted
// lexicographically so BFS expansion order is deterministic.
func buildAdjacency(edges []Edge) map[string][]Edge {
	adjacency := map[string][]Edge{}
	for _, e := range edges {
		parent := strings.ToLower(e.Parent)
		adjacency[parent] = append(adjacency[parent], Edge{
			Parent: parent,
			Child:  strings.ToLower(e.Child),
			Scope:  e.Scope,
		})
	}
	for parent := range adjacency {
		sort.Slice(adjacency[parent], func(i, j int) bool {
			return adjacency[parent][i].Child < adjacency[parent][j].Child
		})
	}
	return adjacency
}

type bfsState struct {
	node   string
	path   []string
	scopes []string
}

// bfsShortestPath performs a breadth-first search from __root__, visiting
// each parent's children in lexicographic order so that ties between
// equal-length paths are broken deterministically in favor of the
// lexicographically smaller child at each step.
func bfsShortestPath(adjacency map[string][]Edge, target string) ([]string, []string, bool) {
	visited := map[string]bool{rootNode: true}
	queue := []bfsState{{node: rootNode, path: []string{rootNode}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.node == target && cur.node != rootNode {
			return cur.path, cur.scopes, true
		}

		for _, edge := range adjacency[cur.node] {
			if visited[edge.Child] {
				continue
			}
			visited[edge.Child] = true

			nextPath := append(append([]string{}, cur.path...), edge.Child)
			nextScopes := append(append([]string{}, cur.scopes...), edge.Scope)

			if edge.Child == target {
				return nextPath, nextScopes, true
			}
			queue = append(queue, bfsState{node: edge.Child, path: nextPath, scopes: nextScopes})
		}
	}
	return nil, nil, false
}

// confidenceFor derives a confidence score from path depth and scope
// composition: shallower paths of runtime-only dependencies score highest;
// each additional hop lowers confidence, and any dev/optional edge on the
// path applies a further penalty.
func confidenceFor(pathLen int, scopes []string) float64 {
	depth := pathLen - 1 // exclude __root__ itself
	if depth < 1 {
		depth = 1
	}
	confidence := 0.95 - float64(depth-1)*0.05
	if confidence < 0.5 {
		confidence = 0.5
	}
	for _, s := range scopes {
		if s != "" && s != "runtime" {
			confidence *= 0.8
			break
		}
	}
	return confidence
}
