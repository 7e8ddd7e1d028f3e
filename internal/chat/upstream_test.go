package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
)

// sseUpstream serves a canned line-delimited stream body.
func sseUpstream(t *testing.T, status int, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	}))
}

func collect(t *testing.T, chunks <-chan Chunk, errc <-chan error) ([]Chunk, error) {
	t.Helper()
	var got []Chunk
	for chunk := range chunks {
		got = append(got, chunk)
	}
	select {
	case err := <-errc:
		return got, err
	default:
		return got, nil
	}
}

func TestResolveKeyPrecedence(t *testing.T) {
	c := NewUpstreamClient("http://example.invalid", "default-key")

	key, err := c.ResolveKey("  caller-key  ")
	require.NoError(t, err)
	assert.Equal(t, "caller-key", key)

	key, err = c.ResolveKey("")
	require.NoError(t, err)
	assert.Equal(t, "default-key", key)

	noDefault := NewUpstreamClient("http://example.invalid", "")
	_, err = noDefault.ResolveKey("   ")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestStreamMissingCredentialBeforeNetwork(t *testing.T) {
	// Unroutable URL: if the client tried the network the test would fail
	// differently.
	c := NewUpstreamClient("http://127.0.0.1:1", "")
	_, _, err := c.Stream(context.Background(), nil, "deepseek-chat", "")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestStreamParsesChunksInOrder(t *testing.T) {
	srv := sseUpstream(t, http.StatusOK,
		`data: {"choices":[{"delta":{"reasoning_content":"think"}}]}`,
		``,
		`: keepalive comment`,
		`data: {"choices":[{"delta":{"reasoning_content":"ing","content":"Hel"}}]}`,
		`data: not-json-at-all`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"ignored after done"}}]}`,
	)
	defer srv.Close()

	c := NewUpstreamClient(srv.URL, "key")
	chunks, errc, err := c.Stream(context.Background(), []models.DeepSeekMessage{{Role: "user", Content: "hi"}}, "deepseek-chat", "")
	require.NoError(t, err)

	got, streamErr := collect(t, chunks, errc)
	require.NoError(t, streamErr)
	require.Len(t, got, 4)

	// Reasoning before content within a record, arrival order across records.
	assert.Equal(t, Chunk{Kind: ChunkReasoning, Text: "think"}, got[0])
	assert.Equal(t, Chunk{Kind: ChunkReasoning, Text: "ing"}, got[1])
	assert.Equal(t, Chunk{Kind: ChunkContent, Text: "Hel"}, got[2])
	assert.Equal(t, Chunk{Kind: ChunkContent, Text: "lo"}, got[3])
}

func TestStreamRejectedStatus(t *testing.T) {
	srv := sseUpstream(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`)
	defer srv.Close()

	c := NewUpstreamClient(srv.URL, "key")
	_, _, err := c.Stream(context.Background(), nil, "deepseek-chat", "")
	require.Error(t, err)

	var rejected *UpstreamRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
	assert.Contains(t, rejected.Body, "bad key")
}

func TestStreamInBandError(t *testing.T) {
	srv := sseUpstream(t, http.StatusOK,
		`data: {"choices":[{"delta":{"content":"partial"}}]}`,
		`data: {"error":{"message":"quota exceeded","type":"insufficient_quota"}}`,
	)
	defer srv.Close()

	c := NewUpstreamClient(srv.URL, "key")
	chunks, errc, err := c.Stream(context.Background(), nil, "deepseek-chat", "")
	require.NoError(t, err)

	got, streamErr := collect(t, chunks, errc)
	require.Len(t, got, 1)
	assert.Equal(t, "partial", got[0].Text)

	var upstreamErr *UpstreamStreamError
	require.True(t, errors.As(streamErr, &upstreamErr))
	assert.Contains(t, streamErr.Error(), "quota exceeded")
}

func TestStreamContextCancellationStopsDelivery(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"one\"}}]}\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	c := NewUpstreamClient(srv.URL, "key")
	chunks, _, err := c.Stream(ctx, nil, "deepseek-chat", "")
	require.NoError(t, err)

	first := <-chunks
	assert.Equal(t, "one", first.Text)

	cancel()
	// Producer must observe cancellation and close the channel.
	for range chunks {
	}
}
