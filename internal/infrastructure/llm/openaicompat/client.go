// Package openaicompat drives the primary-tier model behind an
// OpenAI-compatible completion endpoint (vLLM, TGI, or the hosted
// API).
package openaicompat

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a legal document classifier. Follow the output format exactly."

type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	// Temperature defaults to 0: classification output must be
	// reproducible for a fixed prompt.
	Temperature float32
}

type Client struct {
	api   *openai.Client
	model string
	temp  float32
}

func New(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{
		api:   openai.NewClientWithConfig(clientCfg),
		model: cfg.Model,
		temp:  cfg.Temperature,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temp,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
