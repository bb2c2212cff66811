// internal/common/llama/client_test.go
package llama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-search/internal/common/config"
	stderrors "apartment-search/internal/common/errors"
)

func testConfig(baseURL string) config.LlamaConfig {
	return config.LlamaConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Timeout:     2000,
		MaxTokens:   1024,
		Temperature: 0.2,
		TopP:        0.95,
	}
}

func TestComplete_Success(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"completion": `{"location": "Austin"}`})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	completion, err := client.Complete(context.Background(), "find me a place in Austin")
	require.NoError(t, err)

	assert.Equal(t, `{"location": "Austin"}`, completion)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "find me a place in Austin", gotBody["prompt"])
	assert.Equal(t, 1024.0, gotBody["max_tokens"])
	assert.Equal(t, 0.2, gotBody["temperature"])
	assert.Equal(t, 0.95, gotBody["top_p"])
}

func TestComplete_NoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"completion": "ok"})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIKey = ""
	client := NewClient(cfg)

	_, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestComplete_Non200IsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)

	code, ok := stderrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeAPIError, code)
	assert.Contains(t, err.Error(), "503")
}

func TestComplete_UndecodableBodyIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)

	code, ok := stderrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeAPIError, code)
}

func TestComplete_TimeoutIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"completion": "too late"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Complete(ctx, "prompt")
	require.Error(t, err)

	code, ok := stderrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeAPIError, code)
}
