package domain

import "context"

// ScoringClient defines the interface for the external scoring engine
type ScoringClient interface {
	FetchCandidates(ctx context.Context, userID string) ([]RecommendationCandidate, error)
}

// CatalogRepository defines batched read access to the product catalog.
// IDs without a record are absent from the returned map.
type CatalogRepository interface {
	FindByProductIDs(ctx context.Context, ids []string) (map[string]CatalogItem, error)
}

// TextGenerator defines the capability to turn a prompt into text
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error)
}
