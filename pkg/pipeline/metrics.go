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

package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds the Prometheus metrics for all four stages.
type metricsPipeline struct {
	once sync.Once

	acquireRuns   prometheus.Counter
	acquireFailed prometheus.Counter
	enrichRuns    prometheus.Counter
	enrichFailed  prometheus.Counter
	scoreRuns     prometheus.Counter
	scoreFailed   prometheus.Counter
	actRuns       prometheus.Counter
	actFailed     prometheus.Counter

	findingsWritten     prometheus.Counter
	dependenciesWritten prometheus.Counter
	reachabilityWritten prometheus.Counter

	stageDuration *prometheus.HistogramVec
}

var pipeMetrics metricsPipeline

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.acquireRuns = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_acquire_runs_total", Help: "Acquire stage invocations"})
		m.acquireFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_acquire_failed_total", Help: "Acquire stage failures"})
		m.enrichRuns = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_enrich_runs_total", Help: "Enrich stage invocations"})
		m.enrichFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_enrich_failed_total", Help: "Enrich stage failures"})
		m.scoreRuns = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_score_runs_total", Help: "Score stage invocations"})
		m.scoreFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_score_failed_total", Help: "Score stage failures"})
		m.actRuns = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_act_runs_total", Help: "Act stage invocations"})
		m.actFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_act_failed_total", Help: "Act stage failures"})

		m.findingsWritten = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_findings_written_total", Help: "Finding documents written"})
		m.dependenciesWritten = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_dependencies_written_total", Help: "Dependency edge documents written"})
		m.reachabilityWritten = prometheus.NewCounter(prometheus.CounterOpts{Name: "argonaut_pipeline_reachability_written_total", Help: "Reachability documents written"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "argonaut_pipeline_stage_seconds",
			Help:    "Duration of one pipeline stage",
			Buckets: buckets,
		}, []string{"stage"})

		prometheus.MustRegister(
			m.acquireRuns, m.acquireFailed,
			m.enrichRuns, m.enrichFailed,
			m.scoreRuns, m.scoreFailed,
			m.actRuns, m.actFailed,
			m.findingsWritten, m.dependenciesWritten, m.reachabilityWritten,
			m.stageDuration,
		)
	})
}

func recordStageRun(stage string, failed bool) {
	pipeMetrics.init()
	switch stage {
	case "acquire":
		pipeMetrics.acquireRuns.Inc()
		if failed {
			pipeMetrics.acquireFailed.Inc()
		}
	case "enrich":
		pipeMetrics.enrichRuns.Inc()
		if failed {
			pipeMetrics.enrichFailed.Inc()
		}
	case "score":
		pipeMetrics.scoreRuns.Inc()
		if failed {
			pipeMetrics.scoreFailed.Inc()
		}
	case "act":
		pipeMetrics.actRuns.Inc()
		if failed {
			pipeMetrics.actFailed.Inc()
		}
	}
}

func observeStageDuration(stage string, seconds float64) {
	pipeMetrics.init()
	pipeMetrics.stageDuration.WithLabelValues(stage).Observe(seconds)
}
