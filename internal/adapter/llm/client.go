package llm

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

const (
	maxAttempts    = 3
	maxBackoff     = 8 * time.Second
	costPerToken   = 0.000002
	defaultTimeout = 60 * time.Second
)

// Client is an OpenAI-compatible chat-completions client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	backoffFunc func(attempt int) time.Duration
}

// NewClient creates a completion client for the given endpoint and model.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		backoffFunc: defaultBackoff,
	}
}

func defaultBackoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one prompt and returns the model's reply. Transient failures
// (429, 5xx) are retried with exponential backoff; quota exhaustion is never
// retried.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoffFunc(attempt - 1)):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("llm: %w", err)
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var chat chatResponse
			if err := json.Unmarshal(respBody, &chat); err != nil {
				return nil, fmt.Errorf("llm: decode response: %w", err)
			}
			if len(chat.Choices) == 0 {
				return nil, &ProviderError{StatusCode: resp.StatusCode, Body: "empty choices"}
			}
			return &Completion{
				Text:         chat.Choices[0].Message.Content,
				LatencyMs:    time.Since(start).Milliseconds(),
				CostEstimate: float64(chat.Usage.TotalTokens) * costPerToken,
			}, nil
		}

		if isQuotaExhausted(resp.StatusCode, respBody) {
			return nil, fmt.Errorf("%w: status %d", ErrQuotaExhausted, resp.StatusCode)
		}
		if !isRetryable(resp.StatusCode) {
			return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}
		lastErr = &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil, lastErr
}

func isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// isQuotaExhausted distinguishes billing failures from ordinary rate limits.
func isQuotaExhausted(statusCode int, body []byte) bool {
	if statusCode == http.StatusPaymentRequired {
		return true
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "quota") || strings.Contains(lower, "insufficient credit")
}
