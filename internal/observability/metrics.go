/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqldoc_model_calls_total",
			Help: "Total number of model calls by role, provider and outcome.",
		},
		[]string{"role", "provider", "outcome"},
	)

	modelCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqldoc_model_call_duration_seconds",
			Help:    "Model call latency by role and provider.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"role", "provider"},
	)

	fragmentsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqldoc_fragments_processed_total",
			Help: "Total number of SQL fragments translated and evaluated.",
		},
	)

	parseMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqldoc_parse_misses_total",
			Help: "Sections or criteria missing from model responses.",
		},
		[]string{"field"},
	)
)

func init() {
	prometheus.MustRegister(modelCallsTotal, modelCallDurationSeconds, fragmentsProcessedTotal, parseMissesTotal)
}

// ObserveModelCall records the outcome and latency of one model call.
func ObserveModelCall(role, provider string, err error, elapsed time.Duration) {
	outcome := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	modelCallsTotal.WithLabelValues(role, provider, outcome).Inc()
	modelCallDurationSeconds.WithLabelValues(role, provider).Observe(elapsed.Seconds())
}

// FragmentProcessed counts one completed fragment.
func FragmentProcessed() {
	fragmentsProcessedTotal.Inc()
}

// ParseMiss counts a section or criterion absent from a model response.
func ParseMiss(field string) {
	parseMissesTotal.WithLabelValues(field).Inc()
}

// ServeMetrics exposes /metrics on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		zap.S().Infof("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Warnf("Metrics server stopped: %v", err)
		}
	}()
}
