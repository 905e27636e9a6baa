package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
)

type classifierFake struct {
	result domain.ClassificationResult
	err    error
	calls  int
}

func (c *classifierFake) Classify(_ context.Context, text, _ string) (domain.ClassificationResult, error) {
	c.calls++
	if c.err != nil {
		return domain.ClassificationResult{}, c.err
	}
	if strings.TrimSpace(text) == "" {
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrEmptyInput, "classify", errors.New("empty"))
	}
	return c.result, nil
}

type queueFake struct {
	published []domain.ClassificationRequest
	err       error
}

func (q *queueFake) PublishClassifyRequested(_ context.Context, req domain.ClassificationRequest) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, req)
	return nil
}

func (q *queueFake) SubscribeClassifyRequested(ctx context.Context, _ func(context.Context, domain.ClassificationRequest) error) error {
	<-ctx.Done()
	return nil
}

type auditListFake struct {
	records []domain.AuditRecord
}

func (a *auditListFake) Append(_ context.Context, record domain.AuditRecord) error {
	a.records = append(a.records, record)
	return nil
}

func (a *auditListFake) ListRecent(_ context.Context, limit int, needsReviewOnly bool) ([]domain.AuditRecord, error) {
	var out []domain.AuditRecord
	for _, r := range a.records {
		if needsReviewOnly && !r.NeedsReview {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func newTestRouter(t *testing.T, options Options) *Router {
	t.Helper()
	classifier := &classifierFake{result: domain.ClassificationResult{
		Category:        "Asylum & Refugee",
		DocumentType:    "Official Form/Application",
		ConfidenceScore: 0.82,
		TierUsed:        domain.TierPrimary,
	}}
	return NewRouter(classifier, &queueFake{}, &auditListFake{}, options)
}

func TestClassifyEndpointReturnsResult(t *testing.T) {
	handler := newTestRouter(t, Options{}).Handler()

	body := strings.NewReader(`{"text":"I-589 application for asylum","filename":"i589.pdf"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/classify", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var result domain.ClassificationResult
	if err := json.Unmarshal(res.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Category != "Asylum & Refugee" || result.TierUsed != domain.TierPrimary {
		t.Fatalf("result = %+v", result)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestClassifyEndpointEmptyTextReturns400(t *testing.T) {
	handler := newTestRouter(t, Options{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(`{"text":"   "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", res.Code)
	}
}

func TestClassifyEndpointTemporaryErrorReturns503(t *testing.T) {
	classifier := &classifierFake{err: domain.WrapError(domain.ErrTemporary, "classify", errors.New("queue full"))}
	handler := NewRouter(classifier, &queueFake{}, &auditListFake{}, Options{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(`{"text":"some text"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestClassifyAsyncQueuesRequest(t *testing.T) {
	queue := &queueFake{}
	classifier := &classifierFake{}
	handler := NewRouter(classifier, queue, &auditListFake{}, Options{}).Handler()

	body := strings.NewReader(`{"text":"notice of hearing","filename":"notice.pdf"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/classify/async", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if len(queue.published) != 1 || queue.published[0].Filename != "notice.pdf" {
		t.Fatalf("published = %+v", queue.published)
	}
	if classifier.calls != 0 {
		t.Fatalf("async endpoint must not classify inline")
	}
}

func TestClassifyAsyncRejectsEmptyText(t *testing.T) {
	queue := &queueFake{}
	handler := NewRouter(&classifierFake{}, queue, &auditListFake{}, Options{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/classify/async", strings.NewReader(`{"text":"  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if len(queue.published) != 0 {
		t.Fatalf("empty request must not be queued")
	}
}

func TestAuditRecentFiltersAndLimits(t *testing.T) {
	audit := &auditListFake{records: []domain.AuditRecord{
		{ID: "a", NeedsReview: true, CreatedAt: time.Now()},
		{ID: "b", NeedsReview: false, CreatedAt: time.Now()},
	}}
	handler := NewRouter(&classifierFake{}, &queueFake{}, audit, Options{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/audit/recent?needs_review=true&limit=10", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload struct {
		Records []domain.AuditRecord `json:"records"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Records) != 1 || payload.Records[0].ID != "a" {
		t.Fatalf("records = %+v", payload.Records)
	}
}

func TestAuditRecentRejectsBadLimit(t *testing.T) {
	handler := newTestRouter(t, Options{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/audit/recent?limit=0", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}
