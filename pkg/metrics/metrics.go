package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jlvsolutions/WorldCities-sub000/internal/logger"
)

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wc_api_requests_total",
			Help: "Number of API requests",
		},
		[]string{"method", "path", "status"},
	)
	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wc_api_latency_seconds",
			Help:    "API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wc_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
	RefreshTokens = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wc_refresh_tokens",
			Help: "Live refresh tokens",
		},
	)
	PurgedRefreshTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wc_refresh_tokens_purged_total",
			Help: "Expired refresh tokens removed by the purge job",
		},
	)
	Records = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wc_records_total",
			Help: "Number of records by entity",
		},
		[]string{"entity"},
	)
)

func init() {
	prometheus.MustRegister(
		APIRequests,
		APILatency,
		Logins,
		RefreshTokens,
		PurgedRefreshTokens,
		Records,
	)
}

// RecordCounter is implemented by stores able to count records per entity.
type RecordCounter interface {
	CountRecords(ctx context.Context) (map[string]int, error)
}

// UpdateRecordGauge sets the record gauge from repo once.
func UpdateRecordGauge(ctx context.Context, repo RecordCounter) {
	counts, err := repo.CountRecords(ctx)
	if err != nil {
		logger.L.Warnw("count records", "err", err)
		return
	}
	for e, n := range counts {
		Records.WithLabelValues(e).Set(float64(n))
	}
}

// StartRecordGauge updates the record gauge every interval until ctx ends.
func StartRecordGauge(ctx context.Context, repo RecordCounter, every time.Duration) {
	if repo == nil {
		return
	}
	UpdateRecordGauge(ctx, repo)
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				UpdateRecordGauge(ctx, repo)
			}
		}
	}()
}
