package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	casesCreatedTotal       prometheus.Counter
	casesDeletedTotal       prometheus.Counter
	documentsUploadedTotal  *prometheus.CounterVec
	uploadRejectedTotal     *prometheus.CounterVec
	uploadLatencySeconds    prometheus.Histogram
	verdictsRenderedTotal   *prometheus.CounterVec
	argumentsSubmittedTotal prometheus.Counter
	eventClientsActive      prometheus.Gauge
	eventsBroadcastTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		casesCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cases_created_total",
			Help: "Total number of cases created.",
		})

		casesDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cases_deleted_total",
			Help: "Total number of cases deleted.",
		})

		documentsUploadedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "documents_uploaded_total",
			Help: "Total number of case documents accepted, by media type.",
		}, []string{"mime"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Total number of document uploads rejected, by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_latency_seconds",
			Help:    "Latency distribution for document upload processing.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		})

		verdictsRenderedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verdicts_rendered_total",
			Help: "Total number of verdicts rendered, by model.",
		}, []string{"model"})

		argumentsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arguments_submitted_total",
			Help: "Total number of post-verdict arguments accepted.",
		})

		eventClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "event_clients_active",
			Help: "Number of WebSocket clients currently subscribed to case events.",
		})

		eventsBroadcastTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_broadcast_total",
			Help: "Total number of case events broadcast, by type.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			casesCreatedTotal,
			casesDeletedTotal,
			documentsUploadedTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
			verdictsRenderedTotal,
			argumentsSubmittedTotal,
			eventClientsActive,
			eventsBroadcastTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// CasesCreated exposes the counter for created cases.
func CasesCreated() prometheus.Counter {
	RegisterMetrics()
	return casesCreatedTotal
}

// CasesDeleted exposes the counter for deleted cases.
func CasesDeleted() prometheus.Counter {
	RegisterMetrics()
	return casesDeletedTotal
}

// DocumentsUploaded exposes the counter for accepted documents.
func DocumentsUploaded() *prometheus.CounterVec {
	RegisterMetrics()
	return documentsUploadedTotal
}

// UploadRejected exposes the counter for rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the histogram for upload processing latency.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// VerdictsRendered exposes the counter for rendered verdicts.
func VerdictsRendered() *prometheus.CounterVec {
	RegisterMetrics()
	return verdictsRenderedTotal
}

// ArgumentsSubmitted exposes the counter for accepted arguments.
func ArgumentsSubmitted() prometheus.Counter {
	RegisterMetrics()
	return argumentsSubmittedTotal
}

// EventClients exposes the gauge for connected event clients.
func EventClients() prometheus.Gauge {
	RegisterMetrics()
	return eventClientsActive
}

// EventsBroadcast exposes the counter for broadcast case events.
func EventsBroadcast() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsBroadcastTotal
}
