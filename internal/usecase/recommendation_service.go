package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/recommender/backend/internal/domain"
	"github.com/recommender/backend/internal/logging"
	"github.com/recommender/backend/internal/metrics"
)

// Explainer produces a justification for one recommended item.
// Implementations must absorb their own failures.
type Explainer interface {
	Explain(ctx context.Context, item domain.CatalogItem, reasoning string, factor domain.DominantFactor) string
}

// RecommendationServiceConfig holds configuration for the recommendation service
type RecommendationServiceConfig struct {
	// MaxConcurrency caps in-flight explanation calls per request; 0 means one per candidate
	MaxConcurrency int
}

// RecommendationService joins scoring engine candidates with catalog records and explanations
type RecommendationService struct {
	scoring        domain.ScoringClient
	catalog        domain.CatalogRepository
	explainer      Explainer
	maxConcurrency int
}

// NewRecommendationService creates a new recommendation service with dependencies
func NewRecommendationService(
	scoring domain.ScoringClient,
	catalog domain.CatalogRepository,
	explainer Explainer,
	config RecommendationServiceConfig,
) *RecommendationService {
	return &RecommendationService{
		scoring:        scoring,
		catalog:        catalog,
		explainer:      explainer,
		maxConcurrency: config.MaxConcurrency,
	}
}

// enrichment is a candidate paired with its catalog record, if one exists
type enrichment struct {
	candidate domain.RecommendationCandidate
	item      domain.CatalogItem
	found     bool
}

// GetRecommendations returns explained recommendations for a user in rank order.
// Flow: score -> batch catalog lookup -> concurrent explanations -> ordered assembly.
// Only domain.ErrUpstreamUnavailable (or ErrInvalidRequest) is ever returned.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID string) (*domain.RecommendationResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		metrics.RecordRequest("invalid")
		return nil, domain.ErrInvalidRequest
	}

	log := logging.Ctx(ctx).With().Str("user_id", userID).Logger()

	candidates, err := s.scoring.FetchCandidates(ctx, userID)
	if err != nil {
		metrics.RecordRequest("upstream_error")
		log.Error().Err(err).Msg("scoring engine call failed")
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("fetch candidates for %s: %w", userID, err)
	}

	if len(candidates) == 0 {
		metrics.RecordRequest("empty")
		log.Info().Msg("scoring engine returned no candidates")
		return &domain.RecommendationResult{Items: []domain.EnrichedRecommendation{}}, nil
	}

	enriched := s.enrich(ctx, candidates)
	explanations := s.explainAll(ctx, enriched)

	items := make([]domain.EnrichedRecommendation, 0, len(enriched))
	for i, e := range enriched {
		if !e.found {
			continue
		}
		items = append(items, domain.EnrichedRecommendation{
			ProductID:   e.candidate.ProductID,
			Name:        e.item.Name,
			Category:    e.item.Category,
			Score:       e.candidate.Score,
			Explanation: explanations[i],
		})
	}

	dropped := len(candidates) - len(items)
	metrics.RecordDropped(dropped)
	if len(items) == 0 {
		metrics.RecordRequest("all_dropped")
		log.Warn().Int("candidates", len(candidates)).Msg("no candidate could be enriched from the catalog")
	} else {
		metrics.RecordRequest("ok")
		log.Info().
			Int("candidates", len(candidates)).
			Int("returned", len(items)).
			Int("dropped", dropped).
			Msg("recommendations assembled")
	}

	return &domain.RecommendationResult{
		Items:      items,
		Candidates: len(candidates),
		Dropped:    dropped,
	}, nil
}

// enrich resolves every candidate with a single catalog call.
// A failed lookup leaves every candidate unmatched rather than failing the request.
func (s *RecommendationService) enrich(ctx context.Context, candidates []domain.RecommendationCandidate) []enrichment {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ProductID
	}

	records, err := s.catalog.FindByProductIDs(ctx, ids)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("ids", len(ids)).Msg("catalog lookup failed")
		records = nil
	}

	out := make([]enrichment, len(candidates))
	for i, c := range candidates {
		item, ok := records[c.ProductID]
		out[i] = enrichment{candidate: c, item: item, found: ok}
		if !ok {
			logging.Ctx(ctx).Warn().
				Str("product_id", c.ProductID).
				Int("rank", i).
				Err(domain.ErrProductNotFound).
				Msg("dropping candidate")
		}
	}
	return out
}

// explainAll runs one explanation per matched candidate and returns them indexed
// by candidate position. Each goroutine writes only its own slot.
func (s *RecommendationService) explainAll(ctx context.Context, enriched []enrichment) []string {
	explanations := make([]string, len(enriched))

	// Explain never fails; errgroup is here for SetLimit only.
	var g errgroup.Group
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}

	for i, e := range enriched {
		if !e.found {
			continue
		}
		g.Go(func() error {
			explanations[i] = s.explainer.Explain(ctx, e.item, e.candidate.Reasoning, e.candidate.DominantFactor)
			return nil
		})
	}
	_ = g.Wait() // always nil

	return explanations
}
