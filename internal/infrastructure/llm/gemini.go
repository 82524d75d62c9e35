package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/recommender/backend/internal/domain"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the slice of *genai.Models the generator needs
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator calls the Gemini API through the Google Gen AI SDK
type GeminiGenerator struct {
	models      contentGenerator
	model       string
	rateLimiter *rate.Limiter
}

// NewGeminiGenerator creates a Gemini API client
func NewGeminiGenerator(ctx context.Context, apiKey, model string, rl RateConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiGenerator(client.Models, model, rl), nil
}

func newGeminiGenerator(models contentGenerator, model string, rl RateConfig) *GeminiGenerator {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiGenerator{
		models:      models,
		model:       model,
		rateLimiter: newLimiter(rl),
	}
}

// Generate sends the prompt and concatenates the text parts of the first candidate
func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResponse, error) {
	if err := wait(ctx, g.rateLimiter); err != nil {
		return nil, err
	}

	temperature := float32(req.Temperature)
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	return &domain.GenerationResponse{Text: firstCandidateText(resp)}, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

var _ domain.TextGenerator = (*GeminiGenerator)(nil)
