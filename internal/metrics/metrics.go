// Package metrics exposes the Prometheus collectors of the service.
//
// Usage:
//
//	router.Use(metrics.Middleware())
//	router.GET("/metrics", metrics.Handler())
//
//	metrics.RecordRelationToggle("favorite", metrics.ActionAdd, err)
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Relation toggle actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// RelationTogglesTotal counts favorite, cart and subscription changes.
	RelationTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_toggles_total",
			Help: "Total number of marker relation adds and removes",
		},
		[]string{"relation", "action", "result"},
	)

	// ShoppingListDownloadsTotal counts exported shopping lists.
	ShoppingListDownloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Total number of shopping list downloads",
		},
	)
)

// resultLabeler lets an error choose its own result label (conflict, not_found...).
type resultLabeler interface {
	MetricLabel() string
}

// RecordRelationToggle records one add or remove on a marker relation.
func RecordRelationToggle(relation, action string, err error) {
	RelationTogglesTotal.WithLabelValues(relation, action, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var l resultLabeler
	if errors.As(err, &l) {
		return l.MetricLabel()
	}
	return "error"
}

// Middleware records the request counter and latency histogram. Unmatched
// routes share one label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
