package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

func scrape(t *testing.T, m *HTTPServerMetrics) string {
	t.Helper()
	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestMiddlewareRecordsNormalizedPath(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/retrieve", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/123", nil))

	out := scrape(t, m)
	for _, want := range []string{
		`medref_http_requests_total{method="POST",path="/v1/retrieve",service="api",status="418"} 1`,
		`medref_http_requests_total{method="GET",path="other",service="api",status="418"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestObserversUpdateRetrievalAndCorpusMetrics(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.ObserveRetrieval(domain.ScopeScoped, 40, 3, 20*time.Millisecond)
	m.ObserveRetrieval(domain.ScopeGlobal, 0, 0, time.Millisecond)
	m.ObserveRerankFallback()
	m.ObserveReload("success", domain.CorpusInfo{Pages: 2412, Dimension: 768})
	m.ObserveReload("failure", domain.CorpusInfo{Pages: 1})

	out := scrape(t, m)
	for _, want := range []string{
		`medref_retrieval_requests_total{scope="scoped",service="api"} 1`,
		`medref_retrieval_no_context_total{scope="global",service="api"} 1`,
		`medref_retrieval_rerank_fallback_total{service="api"} 1`,
		`medref_corpus_reloads_total{service="api",status="failure"} 1`,
		`medref_corpus_pages{service="api"} 2412`,
		`medref_corpus_embedding_dimension{service="api"} 768`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRegisterQueryCacheExportsCounters(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	hits, misses := uint64(3), uint64(1)
	m.RegisterQueryCache(func() (uint64, uint64) { return hits, misses })

	hits++
	out := scrape(t, m)
	for _, want := range []string{
		`medref_query_cache_hits_total{service="api"} 4`,
		`medref_query_cache_misses_total{service="api"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
