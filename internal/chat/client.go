// Package chat is a minimal client for OpenAI-compatible chat-completion
// endpoints, used by the ask CLI. One prompt in, one reply out; no history,
// no streaming.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/popgate/popgate/internal/httpclient"
	"github.com/popgate/popgate/internal/infrastructure/config"
)

// ErrEmptyReply is returned when the endpoint answers without any choices.
var ErrEmptyReply = errors.New("chat endpoint returned no choices")

// Client talks to one chat-completion endpoint.
type Client struct {
	http    *httpclient.Client
	baseURL string
	model   string
}

// New creates a chat client from configuration.
func New(cfg config.ChatConfig) *Client {
	hc := httpclient.New()
	if cfg.APIKey != "" {
		hc.SetBearerAuth(cfg.APIKey)
	}

	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// message is one chat turn on the wire.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Complete sends prompt as a single user message and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req, err := c.http.Request(ctx)
	if err != nil {
		return "", err
	}

	body := completionRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: prompt}},
	}
	req.SetHeader("Content-Type", "application/json").SetBody(body)

	resp, err := c.http.ExecuteWithBreaker(func() (*resty.Response, error) {
		return req.Post(c.baseURL + "/v1/chat/completions")
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	var parsed completionResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		if parsed.Error != nil {
			return "", fmt.Errorf("chat endpoint error (%s): %s", parsed.Error.Type, parsed.Error.Message)
		}
		return "", fmt.Errorf("chat endpoint returned HTTP %d", resp.StatusCode())
	}

	if len(parsed.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return parsed.Choices[0].Message.Content, nil
}
