package observability

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// dbStatsName labels the connection pool collector.
const dbStatsName = "scores"

// MetricsHandler registers the connection pool collector on reg and returns a
// Gin engine exposing g at GET /metrics.
func MetricsHandler(reg prometheus.Registerer, g prometheus.Gatherer, sqlDB *sql.DB) (http.Handler, error) {
	if sqlDB != nil {
		if err := reg.Register(collectors.NewDBStatsCollector(sqlDB, dbStatsName)); err != nil {
			return nil, fmt.Errorf("register db stats: %w", err)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	return r, nil
}

// NewMetricsServer builds the listener that serves /metrics from the default
// registry, apart from the public API.
func NewMetricsServer(addr string, sqlDB *sql.DB) (*http.Server, error) {
	h, err := MetricsHandler(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, sqlDB)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}
