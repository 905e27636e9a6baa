package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
)

type Options struct {
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration
}

type Router struct {
	classifyUC ports.DocumentClassifier
	queue      ports.JobQueue
	audit      ports.AuditLog

	options Options
}

func NewRouter(classifyUC ports.DocumentClassifier, queue ports.JobQueue, audit ports.AuditLog, options Options) *Router {
	return &Router{
		classifyUC: classifyUC,
		queue:      queue,
		audit:      audit,
		options:    options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/classify", rt.classify)
	mux.HandleFunc("/v1/classify/async", rt.classifyAsync)
	mux.HandleFunc("/v1/audit/recent", rt.auditRecent)

	var handler http.Handler = mux
	if rt.options.MaxConcurrent > 0 {
		wait := rt.options.BackpressureWait
		if wait <= 0 {
			wait = 500 * time.Millisecond
		}
		handler = backpressureMiddleware(handler, rt.options.MaxConcurrent, wait)
	}
	if rt.options.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type classifyRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := rt.classifyUC.Classify(r.Context(), req.Text, req.Filename)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) classifyAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	err := rt.queue.PublishClassifyRequested(r.Context(), domain.ClassificationRequest{
		Text:     req.Text,
		Filename: req.Filename,
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (rt *Router) auditRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be in 1..500"})
			return
		}
		limit = parsed
	}
	needsReviewOnly := r.URL.Query().Get("needs_review") == "true"

	records, err := rt.audit.ListRecent(r.Context(), limit, needsReviewOnly)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if records == nil {
		records = []domain.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
