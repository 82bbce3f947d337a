package server

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jlvsolutions/WorldCities-sub000/internal/server/middleware"
	"github.com/jlvsolutions/WorldCities-sub000/pkg/metrics"
)

// setupMetrics registers metrics middleware and handlers.
func setupMetrics(ctx context.Context, api huma.API, r chi.Router, repo metrics.RecordCounter, every time.Duration) {
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	api.UseMiddleware(middleware.MetricsMW)
	metrics.StartRecordGauge(ctx, repo, every)
}
