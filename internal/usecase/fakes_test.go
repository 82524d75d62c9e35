package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/recommender/backend/internal/domain"
)

// fakeScoringClient is a mock implementation of domain.ScoringClient
type fakeScoringClient struct {
	candidates []domain.RecommendationCandidate
	err        error
	calls      int32
}

func (f *fakeScoringClient) FetchCandidates(ctx context.Context, userID string) ([]domain.RecommendationCandidate, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

// fakeCatalog is a mock implementation of domain.CatalogRepository
type fakeCatalog struct {
	items   map[string]domain.CatalogItem
	err     error
	calls   int32
	lastIDs []string
}

func newFakeCatalog(items ...domain.CatalogItem) *fakeCatalog {
	c := &fakeCatalog{items: make(map[string]domain.CatalogItem)}
	for _, item := range items {
		c.items[item.ProductID] = item
	}
	return c
}

func (f *fakeCatalog) FindByProductIDs(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	atomic.AddInt32(&f.calls, 1)
	f.lastIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.CatalogItem)
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

// fakeGenerator is a mock implementation of domain.TextGenerator.
// respond decides the output per prompt; prompts are recorded in call order.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	respond func(ctx context.Context, prompt string) (*domain.GenerationResponse, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.mu.Unlock()

	if f.respond == nil {
		return &domain.GenerationResponse{Text: "generated"}, nil
	}
	return f.respond(ctx, req.Prompt)
}

func (f *fakeGenerator) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// echoGenerator answers with the product line of the prompt, plus the first listed feature if any
func echoGenerator() *fakeGenerator {
	return &fakeGenerator{
		respond: func(ctx context.Context, prompt string) (*domain.GenerationResponse, error) {
			var name, feature string
			for _, line := range strings.Split(prompt, "\n") {
				if strings.HasPrefix(line, "Product Name: ") {
					name = strings.TrimPrefix(line, "Product Name: ")
				}
				if strings.HasPrefix(line, "Product Features: ") {
					feature = strings.Split(strings.TrimPrefix(line, "Product Features: "), ", ")[0]
				}
			}
			text := "You will love " + name + "."
			if feature != "" {
				text += " Its " + feature + " design matches what you browse."
			}
			return &domain.GenerationResponse{Text: text}, nil
		},
	}
}
