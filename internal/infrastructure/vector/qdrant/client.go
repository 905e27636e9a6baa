package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
)

// Client serves both similarity spaces: taxonomy definition vectors
// and previously classified documents. Each space is its own qdrant
// collection.
type Client struct {
	baseURL             string
	taxonomyCollection  string
	documentsCollection string
	httpClient          *http.Client

	ensureMu sync.Mutex
	ensured  map[string]int // collection -> ensured vector size
}

func New(baseURL, taxonomyCollection, documentsCollection string) *Client {
	return &Client{
		baseURL:             strings.TrimRight(baseURL, "/"),
		taxonomyCollection:  taxonomyCollection,
		documentsCollection: documentsCollection,
		httpClient:          &http.Client{Timeout: 60 * time.Second},
		ensured:             make(map[string]int),
	}
}

func (c *Client) SearchTaxonomy(ctx context.Context, queryVector []float32, topK int) ([]domain.TaxonomyHit, error) {
	results, err := c.search(ctx, c.taxonomyCollection, queryVector, topK)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TaxonomyHit, 0, len(results))
	for _, r := range results {
		out = append(out, domain.TaxonomyHit{
			Name:        getStringPayload(r.Payload, "name"),
			Kind:        getStringPayload(r.Payload, "kind"),
			Description: getStringPayload(r.Payload, "description"),
			Score:       r.Score,
		})
	}
	return out, nil
}

func (c *Client) SearchDocuments(ctx context.Context, queryVector []float32, topK int) ([]domain.DocumentHit, error) {
	results, err := c.search(ctx, c.documentsCollection, queryVector, topK)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DocumentHit, 0, len(results))
	for _, r := range results {
		out = append(out, domain.DocumentHit{
			Filename:     getStringPayload(r.Payload, "filename"),
			Category:     getStringPayload(r.Payload, "category"),
			DocumentType: getStringPayload(r.Payload, "document_type"),
			Excerpt:      getStringPayload(r.Payload, "excerpt"),
			Score:        r.Score,
		})
	}
	return out, nil
}

// UpsertTaxonomy seeds definition vectors. Point IDs derive from the
// entry identity, so re-seeding overwrites instead of duplicating.
func (c *Client) UpsertTaxonomy(ctx context.Context, entries []ports.TaxonomyEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, c.taxonomyCollection, len(entries[0].Vector)); err != nil {
		return err
	}

	points := make([]point, 0, len(entries))
	for _, entry := range entries {
		points = append(points, point{
			ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte("taxonomy/"+entry.Kind+"/"+entry.Name)).String(),
			Vector: entry.Vector,
			Payload: map[string]any{
				"name":        entry.Name,
				"kind":        entry.Kind,
				"description": entry.Description,
			},
		})
	}
	return c.upsertPoints(ctx, c.taxonomyCollection, points)
}

// StoreDocument writes a classified document back into the documents
// space so future requests can retrieve it as context.
func (c *Client) StoreDocument(ctx context.Context, record domain.AuditRecord, vector []float32) error {
	if len(vector) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, c.documentsCollection, len(vector)); err != nil {
		return err
	}

	points := []point{{
		ID:     record.ID,
		Vector: vector,
		Payload: map[string]any{
			"filename":      record.Filename,
			"category":      record.Category,
			"document_type": record.DocumentType,
			"excerpt":       record.TextExcerpt,
			"tier_used":     string(record.TierUsed),
			"needs_review":  record.NeedsReview,
		},
	}}
	return c.upsertPoints(ctx, c.documentsCollection, points)
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type searchResult struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) search(ctx context.Context, collection string, queryVector []float32, limit int) ([]searchResult, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []searchResult `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return searchResp.Result, nil
}

func (c *Client) upsertPoints(ctx context.Context, collection string, points []point) error {
	reqBody := map[string]any{"points": points}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, collection string, vectorSize int) error {
	c.ensureMu.Lock()
	if size, ok := c.ensured[collection]; ok && size == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(collection, vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(collection, vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(collection string, vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensured[collection] = vectorSize
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
