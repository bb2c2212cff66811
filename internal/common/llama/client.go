package llama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"apartment-search/internal/common/config"
	stderrors "apartment-search/internal/common/errors"
	commonhttp "apartment-search/internal/common/http"
	"apartment-search/internal/common/metrics"
)

// Client calls a llama-style completion endpoint. The endpoint takes a raw
// prompt with sampling parameters and returns a single completion string.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *commonhttp.Client

	maxTokens   int
	temperature float64
	topP        float64
}

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type completionResponse struct {
	Completion string `json:"completion"`
}

func NewClient(cfg config.LlamaConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		httpClient:  commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}
}

// Complete sends prompt to the completion endpoint and returns the raw
// completion text. Any transport failure, timeout or non-200 status is
// reported as an API_ERROR.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := completionRequest{
		Prompt:      prompt,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			metrics.LlamaRequests.WithLabelValues("timeout").Inc()
			return "", stderrors.NewAPITimeoutError()
		}
		metrics.LlamaRequests.WithLabelValues("error").Inc()
		return "", stderrors.NewAPIError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.LlamaRequests.WithLabelValues("error").Inc()
		return "", stderrors.NewAPIError(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		metrics.LlamaRequests.WithLabelValues("error").Inc()
		return "", stderrors.NewAPIError(fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var compResp completionResponse
	if err := json.Unmarshal(body, &compResp); err != nil {
		metrics.LlamaRequests.WithLabelValues("error").Inc()
		return "", stderrors.NewAPIError(fmt.Errorf("failed to decode completion response: %w", err))
	}

	metrics.LlamaRequests.WithLabelValues("success").Inc()
	return compResp.Completion, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
