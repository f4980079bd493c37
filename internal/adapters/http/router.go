package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/routers"

	"github.com/kirillkom/medref-rag/internal/config"
	"github.com/kirillkom/medref-rag/internal/core/ports"
	"github.com/kirillkom/medref-rag/internal/observability/metrics"
)

const maxBodyBytes = 64 << 10

type Router struct {
	cfg       config.Config
	retriever ports.Retriever
	answerer  ports.QuestionAnswerer
	reloader  ports.CorpusReloader
	metrics   *metrics.HTTPServerMetrics
	openapi   routers.Router
}

// NewRouter wires the API handlers. metrics may be nil.
func NewRouter(
	cfg config.Config,
	retriever ports.Retriever,
	answerer ports.QuestionAnswerer,
	reloader ports.CorpusReloader,
	httpMetrics *metrics.HTTPServerMetrics,
) (*Router, error) {
	rt := &Router{
		cfg:       cfg,
		retriever: retriever,
		answerer:  answerer,
		reloader:  reloader,
		metrics:   httpMetrics,
	}
	if cfg.APIValidateRequests {
		router, err := loadOpenAPIRouter()
		if err != nil {
			return nil, err
		}
		rt.openapi = router
	}
	return rt, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/answer", rt.answer)
	mux.HandleFunc("/v1/corpus", rt.corpusInfo)
	mux.HandleFunc("/v1/corpus/reload", rt.reloadCorpus)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.openapi != nil {
		handler = validationMiddleware(handler, rt.openapi)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMax, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = timeoutMiddleware(handler, rt.cfg.APIRequestTimeout)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type questionRequest struct {
	Question string `json:"question"`
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	question, ok := readQuestion(w, r)
	if !ok {
		return
	}
	result, err := rt.retriever.Retrieve(r.Context(), question)
	if err != nil {
		rt.writeDomainError(w, r, "retrieve", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) answer(w http.ResponseWriter, r *http.Request) {
	question, ok := readQuestion(w, r)
	if !ok {
		return
	}
	answer, err := rt.answerer.Answer(r.Context(), question)
	if err != nil {
		rt.writeDomainError(w, r, "answer", err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) corpusInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	info, err := rt.reloader.Info()
	if err != nil {
		rt.writeDomainError(w, r, "corpus_info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (rt *Router) reloadCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "http"
	}

	info, err := rt.reloader.Reload(r.Context(), reason)
	if err != nil {
		slog.Warn("corpus_reload_rejected", "request_id", requestIDFromContext(r.Context()), "error", err)
		payload := map[string]any{"error": err.Error()}
		if current, infoErr := rt.reloader.Info(); infoErr == nil {
			payload["corpus"] = current
		}
		writeJSON(w, http.StatusServiceUnavailable, payload)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func readQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return "", false
	}
	var req questionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return "", false
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return "", false
	}
	return question, true
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	attrs := []any{"request_id", requestIDFromContext(r.Context()), "operation", operation, "status", status, "error", err}
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", attrs...)
	} else {
		slog.Warn("request_failed", attrs...)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
