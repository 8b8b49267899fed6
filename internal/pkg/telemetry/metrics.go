package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Pipeline
	MetricAnalysisDuration = "analysis.run_duration_seconds"
	MetricUploadSize       = "datasets.upload_size_bytes"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricDatasetsUploaded  = "business.datasets_uploaded"
	MetricInsightsGenerated = "business.insights_generated"
)
