package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/recommender/backend/internal/domain"
	"github.com/recommender/backend/internal/logging"
	"github.com/recommender/backend/internal/metrics"
)

// Config holds scoring engine client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
}

// Client fetches ranked candidates from the scoring engine.
// It never retries; every failure is reported as domain.ErrUpstreamUnavailable.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[[]domain.RecommendationCandidate]
	validate   *validator.Validate
}

// NewClient creates a new scoring engine client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		breaker:    newBreaker(cfg),
		validate:   validator.New(),
	}
}

func newBreaker(cfg Config) *gobreaker.CircuitBreaker[[]domain.RecommendationCandidate] {
	threshold := cfg.FailureThreshold
	return gobreaker.NewCircuitBreaker[[]domain.RecommendationCandidate](gobreaker.Settings{
		Name:        "scoring-engine",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// a caller hanging up says nothing about the engine's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetScoringCircuitState(int(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("scoring circuit breaker state changed")
		},
	})
}

// FetchCandidates returns the ranked candidates for a user.
// An empty slice means the engine had nothing to recommend.
func (c *Client) FetchCandidates(ctx context.Context, userID string) ([]domain.RecommendationCandidate, error) {
	start := time.Now()

	candidates, err := c.breaker.Execute(func() ([]domain.RecommendationCandidate, error) {
		return c.fetch(ctx, userID)
	})
	if err != nil {
		metrics.RecordScoring("error", time.Since(start).Seconds())
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
		}
		return nil, err
	}

	metrics.RecordScoring("ok", time.Since(start).Seconds())
	return candidates, nil
}

func (c *Client) fetch(ctx context.Context, userID string) ([]domain.RecommendationCandidate, error) {
	params := url.Values{}
	params.Add("userId", userID)
	reqURL := fmt.Sprintf("%s/get-recommendations?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	var raw []domain.RecommendationCandidate
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", domain.ErrUpstreamUnavailable, err)
	}

	candidates := make([]domain.RecommendationCandidate, 0, len(raw))
	for i, cand := range raw {
		if err := c.validate.Struct(cand); err != nil {
			logging.Ctx(ctx).Warn().
				Int("rank", i).
				Err(err).
				Msg("dropping invalid candidate from scoring engine")
			continue
		}
		cand.DominantFactor = domain.ParseDominantFactor(string(cand.DominantFactor))
		candidates = append(candidates, cand)
	}

	return candidates, nil
}

var _ domain.ScoringClient = (*Client)(nil)
