// Package entailment talks to the zero-shot entailment sidecar that
// serves the NLI validator model. The sidecar keeps the model warm on
// CPU, so validator calls never touch the generative model slot.
package entailment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Entail returns the probability that the premise entails the
// hypothesis, in [0,1].
func (c *Client) Entail(ctx context.Context, premise, hypothesis string) (float64, error) {
	payload := map[string]string{
		"premise":    premise,
		"hypothesis": hypothesis,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal entail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/entail", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create entail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("entailment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			return 0, fmt.Errorf("entailment status: %s", resp.Status)
		}
		return 0, fmt.Errorf("entailment status: %s: %s", resp.Status, msg)
	}

	var response struct {
		Entailment float64 `json:"entailment"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("decode entail response: %w", err)
	}
	if response.Entailment < 0 || response.Entailment > 1 {
		return 0, fmt.Errorf("entailment score %v out of range", response.Entailment)
	}
	return response.Entailment, nil
}
