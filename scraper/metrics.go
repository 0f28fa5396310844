package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
	PagesFetched     prometheus.Counter
	PagesSkipped     prometheus.Counter
	BudgetSpent      prometheus.Counter
	ProductsTotal    prometheus.Counter
	RecordsDropped   prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pagesFetched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_fetched_total",
			Help: "Result pages downloaded successfully.",
		},
	)
	pagesSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_skipped_total",
			Help: "Result pages abandoned after fetch failures or budget exhaustion.",
		},
	)
	budgetSpent := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retry_budget_spent_total",
			Help: "Units of the shared retry budget consumed by failed page fetches.",
		},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_products_extracted_total",
			Help: "Product records extracted and sent to the pipeline.",
		},
	)
	recordsDropped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_records_dropped_total",
			Help: "Result blocks dropped for lacking the mandatory identifier.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, pagesFetched, pagesSkipped, budgetSpent, products, recordsDropped, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		PagesFetched:    pagesFetched,
		PagesSkipped:    pagesSkipped,
		BudgetSpent:     budgetSpent,
		ProductsTotal:   products,
		RecordsDropped:  recordsDropped,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPagesFetched increments the fetched-pages counter.
func (m *Metrics) IncPagesFetched() {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
}

// AddPagesSkipped adds n to the skipped-pages counter.
func (m *Metrics) AddPagesSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PagesSkipped.Add(float64(n))
}

// IncBudgetSpent increments the retry-budget counter.
func (m *Metrics) IncBudgetSpent() {
	if m == nil {
		return
	}
	m.BudgetSpent.Inc()
}

// AddProducts adds n to the extracted-products counter.
func (m *Metrics) AddProducts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ProductsTotal.Add(float64(n))
}

// AddRecordsDropped adds n to the dropped-records counter.
func (m *Metrics) AddRecordsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsDropped.Add(float64(n))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
