// Package metrics provides Prometheus metrics for the apest service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metric naming.
const (
	defaultNamespace = "apest"
	defaultSubsystem = "engine"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Domain metrics
	classifications    *prometheus.CounterVec
	assemblies         *prometheus.CounterVec
	assemblyDuration   prometheus.Histogram
	assemblyShortfalls prometheus.Counter
	inviteResolutions  *prometheus.CounterVec
	invitesIssued      *prometheus.CounterVec

	// Submission pipeline
	submissions          prometheus.Counter
	submissionsDuplicate prometheus.Counter
	membersTotal         prometheus.Gauge
	dedupeSize           prometheus.Gauge

	// Repository
	repositoryLatency *prometheus.HistogramVec
	repositoryErrors  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.classifications = auto.NewCounterVec(
		m.counterOpts("classifications_total", "Total number of role vectors classified by profile type"),
		[]string{"profile_type"},
	)
	m.assemblies = auto.NewCounterVec(
		m.counterOpts("assemblies_total", "Total number of team assemblies by strategy and priority use"),
		[]string{"strategy", "priority"},
	)
	m.assemblyDuration = auto.NewHistogram(
		m.histogramOpts("assembly_duration_milliseconds", "Team assembly duration in milliseconds", m.histogramBuckets),
	)
	m.assemblyShortfalls = auto.NewCounter(
		m.counterOpts("assembly_shortfall_total", "Assemblies that returned fewer members than requested"),
	)
	m.inviteResolutions = auto.NewCounterVec(
		m.counterOpts("invite_resolutions_total", "Invite code resolutions by code kind and match tier"),
		[]string{"kind", "tier"},
	)
	m.invitesIssued = auto.NewCounterVec(
		m.counterOpts("invite_codes_issued_total", "Invite codes issued by code kind"),
		[]string{"kind"},
	)

	m.submissions = auto.NewCounter(
		m.counterOpts("submissions_total", "Total number of assessment submissions applied"),
	)
	m.submissionsDuplicate = auto.NewCounter(
		m.counterOpts("submissions_duplicate_total", "Total number of retried assessment submissions ignored"),
	)
	m.membersTotal = auto.NewGauge(
		m.gaugeOpts("members_total", "Number of members with a stored role vector"),
	)
	m.dedupeSize = auto.NewGauge(
		m.gaugeOpts("dedupe_entries", "Number of submission IDs remembered for idempotency"),
	)

	m.repositoryLatency = auto.NewHistogramVec(
		m.histogramOpts("repository_latency_milliseconds", "Repository operation latency in milliseconds", m.histogramBuckets),
		[]string{"operation"},
	)
	m.repositoryErrors = auto.NewCounterVec(
		m.counterOpts("repository_errors_total", "Repository operation failures"),
		[]string{"operation"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordClassification counts one classification result.
func RecordClassification(profileType string) {
	globalManager.classifications.WithLabelValues(profileType).Inc()
}

// RecordAssembly records one assembly run. shortfall is true when the team
// is smaller than requested.
func RecordAssembly(strategy string, priority bool, durationMs float64, shortfall bool) {
	p := "false"
	if priority {
		p = "true"
	}
	globalManager.assemblies.WithLabelValues(strategy, p).Inc()
	globalManager.assemblyDuration.Observe(durationMs)
	if shortfall {
		globalManager.assemblyShortfalls.Inc()
	}
}

// RecordInviteResolution counts one resolution. tier is "none" when no code matched.
func RecordInviteResolution(kind, tier string) {
	globalManager.inviteResolutions.WithLabelValues(kind, tier).Inc()
}

// RecordInviteIssued counts one issued code.
func RecordInviteIssued(kind string) {
	globalManager.invitesIssued.WithLabelValues(kind).Inc()
}

// RecordSubmission increments the applied submissions counter.
func RecordSubmission() {
	globalManager.submissions.Inc()
}

// RecordSubmissionDuplicate increments the duplicate submissions counter.
func RecordSubmissionDuplicate() {
	globalManager.submissionsDuplicate.Inc()
}

// UpdateMembersTotal sets the stored member count.
func UpdateMembersTotal(count int) {
	globalManager.membersTotal.Set(float64(count))
}

// UpdateDedupeSize sets the number of remembered submission IDs.
func UpdateDedupeSize(size int64) {
	globalManager.dedupeSize.Set(float64(size))
}

// RecordRepositoryLatency records the latency of one repository operation.
func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordRepositoryError counts one failed repository operation.
func RecordRepositoryError(operation string) {
	globalManager.repositoryErrors.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
