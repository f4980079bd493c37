package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

const namespace = "medref"

// HTTPServerMetrics owns the API registry: transport metrics plus the
// retrieval and reload observations reported by the use cases.
type HTTPServerMetrics struct {
	service  string
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal      *prometheus.CounterVec
	retrievalNoContext  *prometheus.CounterVec
	retrievalCandidates *prometheus.HistogramVec
	retrievalPages      *prometheus.HistogramVec
	retrievalDuration   *prometheus.HistogramVec
	rerankFallbackTotal prometheus.Counter
	reloadTotal         *prometheus.CounterVec
	corpusPages         prometheus.Gauge
	corpusDimension     prometheus.Gauge
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()
	serviceLabel := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: serviceLabel,
		},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total finished retrievals by scope.",
		},
		[]string{"service", "scope"},
	)
	retrievalNoContext := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total retrievals that selected no page.",
		},
		[]string{"service", "scope"},
	)
	retrievalCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "candidates",
			Help:      "Distribution of ranked candidate pages per retrieval.",
			Buckets:   []float64{0, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"service", "scope"},
	)
	retrievalPages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "selected_pages",
			Help:      "Distribution of pages admitted into the context per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 13, 21},
		},
		[]string{"service", "scope"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Retrieval duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "scope"},
	)
	rerankFallbackTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "retrieval",
			Name:        "rerank_fallback_total",
			Help:        "Total reranker failures answered with the hybrid order.",
			ConstLabels: serviceLabel,
		},
	)
	reloadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "corpus",
			Name:      "reloads_total",
			Help:      "Total corpus reloads by status.",
		},
		[]string{"service", "status"},
	)
	corpusPages := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "corpus",
			Name:        "pages",
			Help:        "Pages in the served corpus snapshot.",
			ConstLabels: serviceLabel,
		},
	)
	corpusDimension := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "corpus",
			Name:        "embedding_dimension",
			Help:        "Embedding dimension of the served corpus snapshot.",
			ConstLabels: serviceLabel,
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalTotal,
		retrievalNoContext,
		retrievalCandidates,
		retrievalPages,
		retrievalDuration,
		rerankFallbackTotal,
		reloadTotal,
		corpusPages,
		corpusDimension,
	)

	return &HTTPServerMetrics{
		service:             service,
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		retrievalTotal:      retrievalTotal,
		retrievalNoContext:  retrievalNoContext,
		retrievalCandidates: retrievalCandidates,
		retrievalPages:      retrievalPages,
		retrievalDuration:   retrievalDuration,
		rerankFallbackTotal: rerankFallbackTotal,
		reloadTotal:         reloadTotal,
		corpusPages:         corpusPages,
		corpusDimension:     corpusDimension,
	}
}

// RegisterQueryCache exports the hit and miss counters of the query
// embedding cache. Call it once per registry.
func (m *HTTPServerMetrics) RegisterQueryCache(stats func() (hits, misses uint64)) {
	counter := func(name, help string, pick func(hits, misses uint64) uint64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "query_cache",
				Name:        name,
				Help:        help,
				ConstLabels: prometheus.Labels{"service": m.service},
			},
			func() float64 { return float64(pick(stats())) },
		)
	}
	m.registry.MustRegister(
		counter("hits_total", "Query embeddings served from the cache.",
			func(hits, _ uint64) uint64 { return hits }),
		counter("misses_total", "Query embeddings computed by the embedder.",
			func(_, misses uint64) uint64 { return misses }),
	)
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps label cardinality bounded.
func normalizePath(path string) string {
	switch path {
	case "/healthz", "/metrics", "/v1/retrieve", "/v1/answer", "/v1/corpus", "/v1/corpus/reload":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) ObserveRetrieval(scope domain.ScopeMode, candidates, pages int, duration time.Duration) {
	s := string(scope)
	if s == "" {
		s = "unknown"
	}
	m.retrievalTotal.WithLabelValues(m.service, s).Inc()
	m.retrievalCandidates.WithLabelValues(m.service, s).Observe(float64(candidates))
	m.retrievalPages.WithLabelValues(m.service, s).Observe(float64(pages))
	m.retrievalDuration.WithLabelValues(m.service, s).Observe(duration.Seconds())
	if pages == 0 {
		m.retrievalNoContext.WithLabelValues(m.service, s).Inc()
	}
}

func (m *HTTPServerMetrics) ObserveRerankFallback() {
	m.rerankFallbackTotal.Inc()
}

func (m *HTTPServerMetrics) ObserveReload(status string, info domain.CorpusInfo) {
	if status == "" {
		status = "unknown"
	}
	m.reloadTotal.WithLabelValues(m.service, status).Inc()
	if status == "success" {
		m.corpusPages.Set(float64(info.Pages))
		m.corpusDimension.Set(float64(info.Dimension))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
