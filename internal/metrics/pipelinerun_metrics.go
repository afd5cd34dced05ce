/*
Copyright 2025 The Kubeflow authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/imadeit/pipectl/api/v1alpha1"
	"github.com/imadeit/pipectl/pkg/common"
	"github.com/imadeit/pipectl/pkg/util"
)

// PipelineRunMetrics tracks scheduled pipeline runs.
type PipelineRunMetrics struct {
	prefix string
	labels []string
	logger *zap.Logger

	count        *prometheus.CounterVec
	runningCount *prometheus.GaugeVec
	successCount *prometheus.CounterVec
	failureCount *prometheus.CounterVec

	successExecutionTimeSeconds *prometheus.SummaryVec
	failureExecutionTimeSeconds *prometheus.SummaryVec
	stageExecutionTimeSeconds   *prometheus.SummaryVec
}

// NewPipelineRunMetrics builds the metric set. Label values are fixed per
// scheduler instance (pipeline name).
func NewPipelineRunMetrics(prefix string, labels []string, logger *zap.Logger) *PipelineRunMetrics {
	validLabels := make([]string, 0, len(labels))
	for _, label := range labels {
		validLabels = append(validLabels, util.CreateValidMetricNameLabel("", label))
	}

	return &PipelineRunMetrics{
		prefix: prefix,
		labels: validLabels,
		logger: logger,

		count: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: util.CreateValidMetricNameLabel(prefix, common.MetricPipelineRunCount),
				Help: "Total number of pipeline runs",
			},
			validLabels,
		),
		runningCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: util.CreateValidMetricNameLabel(prefix, common.MetricPipelineRunRunningCount),
				Help: "Number of pipeline runs currently in flight",
			},
			validLabels,
		),
		successCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: util.CreateValidMetricNameLabel(prefix, common.MetricPipelineRunSuccessCount),
				Help: "Total number of successful pipeline runs",
			},
			validLabels,
		),
		failureCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: util.CreateValidMetricNameLabel(prefix, common.MetricPipelineRunFailureCount),
				Help: "Total number of failed pipeline runs",
			},
			validLabels,
		),
		successExecutionTimeSeconds: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: util.CreateValidMetricNameLabel(prefix, common.MetricPipelineRunSuccessExecutionTimeSeconds),
				Help: "Execution time of successful pipeline runs",
			},
			validLabels,
		),
		failureExecutionTimeSeconds: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: util.CreateValidMetricNameLabel(prefix, common.MetricPipelineRunFailureExecutionTimeSeconds),
				Help: "Execution time of failed pipeline runs",
			},
			validLabels,
		),
		stageExecutionTimeSeconds: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: util.CreateValidMetricNameLabel(prefix, common.MetricPipelineStageExecutionTimeSeconds),
				Help: "Execution time of completed pipeline stages",
			},
			append([]string{"stage"}, validLabels...),
		),
	}
}

// Register registers all metrics with the given registry.
func (m *PipelineRunMetrics) Register(registry prometheus.Registerer) {
	collectors := []prometheus.Collector{
		m.count,
		m.runningCount,
		m.successCount,
		m.failureCount,
		m.successExecutionTimeSeconds,
		m.failureExecutionTimeSeconds,
		m.stageExecutionTimeSeconds,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			m.logger.Error("failed to register metric", zap.Error(err))
		}
	}
}

// ForPipeline binds the metric set to one pipeline's label values and
// returns a pipeline.Observer-compatible recorder.
func (m *PipelineRunMetrics) ForPipeline(labelValues ...string) *RunRecorder {
	return &RunRecorder{metrics: m, labelValues: labelValues}
}

// RunRecorder implements the run observer for one pipeline.
type RunRecorder struct {
	metrics     *PipelineRunMetrics
	labelValues []string
}

func (r *RunRecorder) RunStarted() {
	r.metrics.count.WithLabelValues(r.labelValues...).Inc()
	r.metrics.runningCount.WithLabelValues(r.labelValues...).Inc()
}

func (r *RunRecorder) RunCompleted(duration time.Duration) {
	r.metrics.runningCount.WithLabelValues(r.labelValues...).Dec()
	r.metrics.successCount.WithLabelValues(r.labelValues...).Inc()
	r.metrics.successExecutionTimeSeconds.WithLabelValues(r.labelValues...).Observe(duration.Seconds())
}

func (r *RunRecorder) RunFailed(duration time.Duration) {
	r.metrics.runningCount.WithLabelValues(r.labelValues...).Dec()
	r.metrics.failureCount.WithLabelValues(r.labelValues...).Inc()
	r.metrics.failureExecutionTimeSeconds.WithLabelValues(r.labelValues...).Observe(duration.Seconds())
}

func (r *RunRecorder) StageCompleted(stage v1alpha1.StageName, duration time.Duration) {
	values := append([]string{string(stage)}, r.labelValues...)
	r.metrics.stageExecutionTimeSeconds.WithLabelValues(values...).Observe(duration.Seconds())
}
