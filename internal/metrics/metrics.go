package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upload path metrics
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdocs_uploads_total",
			Help: "Total number of document uploads by outcome",
		},
		[]string{"status"},
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderdocs_upload_bytes_total",
			Help: "Total bytes of document data received",
		},
	)

	// Webhook path metrics
	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdocs_webhooks_total",
			Help: "Total number of webhook deliveries by result",
		},
		[]string{"result"},
	)

	// Remote platform metrics
	PlatformRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderdocs_platform_request_duration_seconds",
			Help:    "Duration of remote platform calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PlatformErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdocs_platform_errors_total",
			Help: "Total number of failed platform calls by error class",
		},
		[]string{"operation", "kind"},
	)

	// Linking metrics
	LinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderdocs_link_failures_total",
			Help: "Total number of failed metadata link calls by owner type",
		},
		[]string{"owner_type"},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderdocs_rate_limit_hits_total",
			Help: "Total number of inbound requests refused by the rate limiter",
		},
	)
)
