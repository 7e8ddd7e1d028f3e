package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
)

// ChunkKind tags one incremental unit of model output.
type ChunkKind string

const (
	ChunkReasoning ChunkKind = "reasoning"
	ChunkContent   ChunkKind = "content"
)

// Chunk is one incremental unit of model output.
type Chunk struct {
	Kind ChunkKind
	Text string
}

// UpstreamClient streams chat completions from the DeepSeek API.
type UpstreamClient struct {
	httpClient *http.Client
	apiURL     string
	defaultKey string
}

func NewUpstreamClient(apiURL, defaultKey string) *UpstreamClient {
	return &UpstreamClient{
		// No overall timeout: a stream lives as long as the model keeps
		// producing tokens. Cancellation comes from the request context.
		httpClient: &http.Client{},
		apiURL:     apiURL,
		defaultKey: defaultKey,
	}
}

// ResolveKey picks the effective credential: the caller-supplied key wins,
// then the configured default, otherwise ErrMissingCredential.
func (c *UpstreamClient) ResolveKey(provided string) (string, error) {
	if trimmed := strings.TrimSpace(provided); trimmed != "" {
		return trimmed, nil
	}
	if c.defaultKey != "" {
		return c.defaultKey, nil
	}
	return "", ErrMissingCredential
}

// Stream opens a streaming completion request. Failures before any chunk is
// produced (missing credential, connect error, non-2xx status) are returned
// synchronously. Once streaming, chunks arrive on the returned channel in
// upstream order; the channel is closed when the stream ends, and errc
// carries at most one mid-stream error. One attempt per call, no retry.
func (c *UpstreamClient) Stream(ctx context.Context, messages []models.DeepSeekMessage, model, apiKey string) (<-chan Chunk, <-chan error, error) {
	key, err := c.ResolveKey(apiKey)
	if err != nil {
		return nil, nil, err
	}

	body, err := json.Marshal(models.DeepSeekChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &UpstreamStreamError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, nil, &UpstreamRejectedError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(detail)),
		}
	}

	chunks := make(chan Chunk)
	errc := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			if payload == "[DONE]" {
				return
			}

			var record models.DeepSeekStreamResponse
			if err := json.Unmarshal([]byte(payload), &record); err != nil {
				// Upstream noise must not abort a healthy stream.
				continue
			}
			if record.Error != nil {
				errc <- &UpstreamStreamError{
					Err: fmt.Errorf("%s: %s", record.Error.Type, record.Error.Message),
				}
				return
			}
			if len(record.Choices) == 0 {
				continue
			}

			// Reasoning before content when one record carries both.
			delta := record.Choices[0].Delta
			if delta.ReasoningContent != "" {
				if !send(ctx, chunks, Chunk{Kind: ChunkReasoning, Text: delta.ReasoningContent}) {
					return
				}
			}
			if delta.Content != "" {
				if !send(ctx, chunks, Chunk{Kind: ChunkContent, Text: delta.Content}) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
			errc <- &UpstreamStreamError{Err: err}
		}
	}()

	return chunks, errc, nil
}

func send(ctx context.Context, chunks chan<- Chunk, chunk Chunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// BalanceChecker verifies a DeepSeek API key and reports its balance,
// falling back to the models endpoint when the balance endpoint is
// unavailable for the key.
type BalanceChecker struct {
	httpClient *http.Client
	balanceURL string
	modelsURL  string
}

func NewBalanceChecker(balanceURL, modelsURL string) *BalanceChecker {
	return &BalanceChecker{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		balanceURL: balanceURL,
		modelsURL:  modelsURL,
	}
}

// Check queries the balance of the given key. The key is used for this one
// call only and never stored.
func (b *BalanceChecker) Check(ctx context.Context, apiKey string) (map[string]interface{}, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("balance check requires an API key")
	}

	resp, err := b.get(ctx, b.balanceURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("network request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var data map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return nil, fmt.Errorf("failed to decode balance response: %w", err)
		}
		return data, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.New("API key is invalid or expired")

	default:
		// Balance endpoint unavailable: probe the models endpoint to at
		// least confirm the key works.
		modelResp, err := b.get(ctx, b.modelsURL, apiKey)
		if err == nil {
			defer modelResp.Body.Close()
			if modelResp.StatusCode == http.StatusOK {
				return map[string]interface{}{
					"is_available": true,
					"balance_infos": []map[string]interface{}{
						{"currency": "CNY", "total_balance": "unknown (endpoint restricted)"},
					},
					"note": "key is valid, but the exact balance is unavailable",
				}, nil
			}
		}
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("DeepSeek API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
}

func (b *BalanceChecker) get(ctx context.Context, url, apiKey string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")
	return b.httpClient.Do(req)
}
