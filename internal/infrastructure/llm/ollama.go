// Package llm holds the text model clients used to write recommendation explanations.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/recommender/backend/internal/domain"
)

// DefaultOllamaModel is used when no model is configured
const DefaultOllamaModel = "llama3.1"

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaGenerator sends prompts to Ollama's generate endpoint
type OllamaGenerator struct {
	baseURL     string
	model       string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewOllamaGenerator constructs a generator for the given endpoint and model
func NewOllamaGenerator(baseURL, model string, timeout time.Duration, rl RateConfig) *OllamaGenerator {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaGenerator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: newLimiter(rl),
	}
}

// Generate sends the prompt and returns the trimmed completion
func (g *OllamaGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResponse, error) {
	if err := wait(ctx, g.rateLimiter); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(generateRequest{
		Model:  g.model,
		Prompt: req.Prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": req.Temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call generate endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("generate endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}

	return &domain.GenerationResponse{Text: strings.TrimSpace(out.Response)}, nil
}

var _ domain.TextGenerator = (*OllamaGenerator)(nil)
