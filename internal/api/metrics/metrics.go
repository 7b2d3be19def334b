// Package metrics defines and registers the custom Prometheus metrics of the
// materials portal. HTTP request metrics come from the echoprometheus
// middleware; this package only holds the domain counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "materials"

// Result label values shared by the counters below.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected" // client error: validation, auth, not found
	ResultError    = "error"    // server side failure
)

// ── Upload metrics ────────────────────────────────────────────────────────────

// UploadsTotal counts upload attempts.
// Label:
//   - result: "success", "rejected" or "error"
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of material uploads, by result.",
	},
	[]string{"result"},
)

// UploadSizeBytes observes the size of every committed upload.
var UploadSizeBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upload_size_bytes",
		Help:      "Size of successfully stored uploads.",
		Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 8), // 1 KiB .. 16 MiB
	},
)

// ── Download metrics ──────────────────────────────────────────────────────────

// DownloadsTotal counts download attempts.
// Label:
//   - result: "success", "rejected" or "error"
var DownloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloads_total",
		Help:      "Total number of material downloads, by result.",
	},
	[]string{"result"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - action: "register" or "login"
//   - result: "success", "rejected" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register and login attempts, by action and result.",
	},
	[]string{"action", "result"},
)

// ResultOf maps an HTTP status to a result label.
func ResultOf(status int) string {
	switch {
	case status < 400:
		return ResultSuccess
	case status < 500:
		return ResultRejected
	default:
		return ResultError
	}
}
