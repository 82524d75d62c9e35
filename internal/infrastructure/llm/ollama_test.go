package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recommender/backend/internal/domain"
)

func TestOllamaGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3", body["model"])
		assert.Equal(t, "say hi", body["prompt"])
		assert.Equal(t, false, body["stream"])
		options := body["options"].(map[string]interface{})
		assert.Equal(t, 0.5, options["temperature"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"  Hi there!  ","done":true}`))
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL+"/", "llama3", time.Second, RateConfig{})

	resp, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "say hi", Temperature: 0.5})

	require.NoError(t, err)
	assert.Equal(t, "Hi there!", resp.Text)
}

func TestOllamaGenerator_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("model loading"))
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "llama3", time.Second, RateConfig{})

	resp, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"})

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestOllamaGenerator_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "llama3", time.Second, RateConfig{})

	_, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "x"})

	assert.Error(t, err)
}

func TestOllamaGenerator_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "llama3", time.Minute, RateConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := gen.Generate(ctx, domain.GenerationRequest{Prompt: "x"})

	assert.Error(t, err)
}

func TestNewLimiter(t *testing.T) {
	unlimited := newLimiter(RateConfig{})
	assert.True(t, unlimited.Allow())
	assert.True(t, unlimited.Allow())

	limited := newLimiter(RateConfig{RequestsPerSecond: 0.001, Burst: 1})
	assert.True(t, limited.Allow())
	assert.False(t, limited.Allow())
}
