package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recommender/backend/internal/domain"
	"github.com/recommender/backend/internal/logging"
	"github.com/recommender/backend/internal/metrics"
)

// FallbackExplanation replaces any explanation the model failed to produce
const FallbackExplanation = "We are recommending this item just for you!"

// persona is the voice and format the model is asked to write in
type persona struct {
	Role  string
	Style string
	// ListFeatures adds the item's feature list to the prompt
	ListFeatures bool
}

// personas maps each dominant factor to its writing persona.
// Adding a strategy means adding an entry here.
var personas = map[domain.DominantFactor]persona{
	domain.FactorCF: {
		Role: "You are a senior e-commerce trust agent and community expert. " +
			"Your tone is warm and enthusiastic, focused on collective approval.",
		Style: "Write one concise paragraph of 2-3 sentences. Focus on the product's " +
			"high predicted rating and the approval of customers with similar tastes.",
	},
	domain.FactorCBF: {
		Role: "You are a personal shopping consultant who specialises in precise feature matching. " +
			"Your tone is direct, knowledgeable and relevant.",
		Style: "Write one concise paragraph of 2-3 sentences. Name at least one of the product's " +
			"specific features and explain how it matches the user's past actions.",
		ListFeatures: true,
	},
}

func personaFor(factor domain.DominantFactor) persona {
	if p, ok := personas[factor]; ok {
		return p
	}
	return personas[domain.FactorCBF]
}

// ExplanationServiceConfig holds configuration for explanation generation
type ExplanationServiceConfig struct {
	Temperature float64
	// Timeout bounds every single model call
	Timeout time.Duration
	// Debug logs prompts and completions
	Debug bool
}

// ExplanationService writes a short justification for a recommended item
type ExplanationService struct {
	generator   domain.TextGenerator
	temperature float64
	timeout     time.Duration
	debug       bool
}

// NewExplanationService creates a new explanation service
func NewExplanationService(generator domain.TextGenerator, config ExplanationServiceConfig) *ExplanationService {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &ExplanationService{
		generator:   generator,
		temperature: config.Temperature,
		timeout:     timeout,
		debug:       config.Debug,
	}
}

// Explain returns the model's justification for item, or FallbackExplanation
// when the model fails. It never returns an error.
func (s *ExplanationService) Explain(
	ctx context.Context,
	item domain.CatalogItem,
	reasoning string,
	factor domain.DominantFactor,
) string {
	start := time.Now()
	log := logging.Ctx(ctx).With().
		Str("product_id", item.ProductID).
		Str("factor", string(factor)).
		Logger()

	text, err := s.generate(ctx, buildPrompt(item, reasoning, factor))
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordExplanation(string(factor), "fallback", elapsed.Seconds())
		log.Warn().
			Err(err).
			Str("outcome", "fallback").
			Dur("elapsed", elapsed).
			Msg("explanation generation failed, using fallback")
		return FallbackExplanation
	}

	metrics.RecordExplanation(string(factor), "generated", elapsed.Seconds())
	event := log.Debug().Str("outcome", "generated").Dur("elapsed", elapsed)
	if s.debug {
		event = event.Str("explanation", text)
	}
	event.Msg("explanation generated")

	return text
}

func (s *ExplanationService) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.debug {
		logging.Ctx(ctx).Debug().Str("prompt", prompt).Msg("sending explanation prompt")
	}

	resp, err := s.generator.Generate(ctx, domain.GenerationRequest{
		Prompt:      prompt,
		Temperature: s.temperature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s: %v", domain.ErrExplanationGeneration, s.timeout, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrExplanationGeneration, err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrExplanationGeneration)
	}

	return strings.TrimSpace(resp.Text), nil
}

// buildPrompt assembles the single structured prompt for one item
func buildPrompt(item domain.CatalogItem, reasoning string, factor domain.DominantFactor) string {
	p := personaFor(factor)

	var sb strings.Builder
	sb.WriteString("--- INSTRUCTIONS ---\n")
	fmt.Fprintf(&sb, "Role: %s\n", p.Role)
	sb.WriteString("Task: Write the final justification for this product recommendation.\n")
	fmt.Fprintf(&sb, "Format: %s\n", p.Style)
	sb.WriteString("--- PRODUCT ---\n")
	fmt.Fprintf(&sb, "Product Name: %s (Category: %s)\n", item.Name, item.Category)
	if p.ListFeatures && len(item.Features) > 0 {
		fmt.Fprintf(&sb, "Product Features: %s\n", strings.Join(item.Features, ", "))
	}
	fmt.Fprintf(&sb, "Technical Justification: %s\n", strings.TrimSpace(reasoning))
	sb.WriteString("\nAddress the user directly.")

	return sb.String()
}
