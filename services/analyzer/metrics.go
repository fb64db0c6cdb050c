// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for the analyzer.
var (
	tracer = otel.Tracer("pathprobe.analyzer")
	meter  = otel.Meter("pathprobe.analyzer")
)

// Metrics for analysis operations.
var (
	analysisLatency   metric.Float64Histogram
	analysisTotal     metric.Int64Counter
	pathsAnalyzed     metric.Int64Histogram
	unreachablePaths  metric.Int64Counter
	solverLatency     metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analysisLatency, err = meter.Float64Histogram(
			"analyzer_analysis_duration_seconds",
			metric.WithDescription("Duration of full analysis requests"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analysisTotal, err = meter.Int64Counter(
			"analyzer_requests_total",
			metric.WithDescription("Total analysis requests by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathsAnalyzed, err = meter.Int64Histogram(
			"analyzer_paths_per_request",
			metric.WithDescription("Enumerated paths per analysis request"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		unreachablePaths, err = meter.Int64Counter(
			"analyzer_unreachable_paths_total",
			metric.WithDescription("Paths proven unreachable"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		solverLatency, err = meter.Float64Histogram(
			"analyzer_solver_duration_seconds",
			metric.WithDescription("Per-path solver check duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordAnalysis records the outcome of one analysis request. A nil
// metrics handle (init failure) degrades to a no-op.
func recordAnalysis(ctx context.Context, outcome string, duration time.Duration, paths int) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	analysisTotal.Add(ctx, 1, attrs)
	analysisLatency.Record(ctx, duration.Seconds(), attrs)
	pathsAnalyzed.Record(ctx, int64(paths))
}

// recordSolve records one per-path solver check.
func recordSolve(ctx context.Context, verdict string, duration time.Duration) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("verdict", verdict))
	solverLatency.Record(ctx, duration.Seconds(), attrs)
	if verdict == "unsat" {
		unreachablePaths.Add(ctx, 1, attrs)
	}
}
