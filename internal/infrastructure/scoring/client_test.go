package scoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recommender/backend/internal/domain"
)

func TestNewClient(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://engine.local/"})

	assert.NotNil(t, client)
	assert.Equal(t, "http://engine.local", client.baseURL)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.breaker)
	assert.NotNil(t, client.validate)
}

func TestFetchCandidates_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-recommendations", r.URL.Path)
		assert.Equal(t, "user-42", r.URL.Query().Get("userId"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"product_id":"A","score":0.9,"dominant_factor":"CF","reasoning":"similar users"},
			{"product_id":"B","score":0.8,"dominant_factor":"CBF","reasoning":"features"},
			{"product_id":"C","score":0.7,"reasoning":"Top-rated (Cold Start)."}
		]`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	result, err := client.FetchCandidates(context.Background(), "user-42")

	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "A", result[0].ProductID)
	assert.Equal(t, 0.9, result[0].Score)
	assert.Equal(t, domain.FactorCF, result[0].DominantFactor)
	assert.Equal(t, domain.FactorCBF, result[1].DominantFactor)
	assert.Equal(t, domain.FactorCBF, result[2].DominantFactor, "missing factor defaults to CBF")
	assert.Equal(t, "similar users", result[0].Reasoning)
}

func TestFetchCandidates_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	result, err := client.FetchCandidates(context.Background(), "new-user")

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestFetchCandidates_DropsInvalidCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"product_id":"","score":0.9},{"product_id":"B","score":0.5,"dominant_factor":"CF"}]`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	result, err := client.FetchCandidates(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "B", result[0].ProductID)
}

func TestFetchCandidates_ServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal recommendation engine failure"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	result, err := client.FetchCandidates(context.Background(), "u1")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "scoring call must not be retried")
}

func TestFetchCandidates_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.FetchCandidates(context.Background(), "u1")

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestFetchCandidates_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: baseURL, Timeout: time.Second})

	_, err := client.FetchCandidates(context.Background(), "u1")

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestFetchCandidates_BreakerOpens(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:          server.URL,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.FetchCandidates(ctx, "u1")
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	}

	_, err := client.FetchCandidates(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "open breaker must short-circuit")
}

func TestFetchCandidates_CallerCancelDoesNotTripBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			<-r.Context().Done()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"product_id":"A","score":0.9,"dominant_factor":"CF","reasoning":"r"}]`))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:          server.URL,
		Timeout:          5 * time.Second,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(50*time.Millisecond, cancel)

		_, err := client.FetchCandidates(ctx, "u1")
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	}

	candidates, err := client.FetchCandidates(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "A", candidates[0].ProductID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
