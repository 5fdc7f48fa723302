package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	RegistrationsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_submitted_total",
			Help: "Total number of registration requests submitted",
		},
	)
	RegistrationsVerified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_verified_total",
			Help: "Total number of successful email verifications",
		},
	)
	RegistrationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_decisions_total",
			Help: "Total number of registration decisions by outcome",
		},
		[]string{"decision"},
	)
	AccountsProvisioned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_provisioned_total",
			Help: "Total number of staff accounts created by source",
		},
		[]string{"source"},
	)
	NotificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of notifications that could not be delivered",
		},
		[]string{"kind"},
	)

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func InitMetrics() {
	collectors := map[string]prometheus.Collector{
		"RegistrationsSubmitted": RegistrationsSubmitted,
		"RegistrationsVerified":  RegistrationsVerified,
		"RegistrationDecisions":  RegistrationDecisions,
		"AccountsProvisioned":    AccountsProvisioned,
		"NotificationFailures":   NotificationFailures,
		"RequestCounter":         RequestCounter,
		"RequestDuration":        RequestDuration,
	}
	for name, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			log.WithError(err).Errorf("Failed to register %s metric", name)
		}
	}
}

// Middleware records request counts and latency keyed by route template,
// so path parameters do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
