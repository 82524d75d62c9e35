package domain

import "strings"

// DominantFactor names the signal that dominated a candidate's score
type DominantFactor string

const (
	// FactorCF marks candidates driven by similar users' behaviour (collaborative filtering)
	FactorCF DominantFactor = "CF"
	// FactorCBF marks candidates driven by feature similarity to the user's own history
	FactorCBF DominantFactor = "CBF"
)

// ParseDominantFactor maps the scoring engine's tag to a factor.
// Cold-start and popularity candidates carry no tag and are treated as CBF.
func ParseDominantFactor(s string) DominantFactor {
	if strings.EqualFold(strings.TrimSpace(s), string(FactorCF)) {
		return FactorCF
	}
	return FactorCBF
}

// RecommendationCandidate is one ranked item returned by the scoring engine
type RecommendationCandidate struct {
	ProductID      string         `json:"product_id" validate:"required"`
	Score          float64        `json:"score"`
	DominantFactor DominantFactor `json:"dominant_factor"`
	Reasoning      string         `json:"reasoning"`
}

// CatalogItem is the catalog metadata for a product
type CatalogItem struct {
	ProductID    string   `json:"product_id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Price        float64  `json:"price"`
	Description  string   `json:"description"`
	Features     []string `json:"features"`
	Rating       float64  `json:"rating"`
	ReviewsCount int      `json:"reviews_count"`
}

// EnrichedRecommendation is a candidate joined with its catalog record and explanation
type EnrichedRecommendation struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// RecommendationResult is the ordered output of a recommendation request.
// Candidates and Dropped let callers tell "nothing to recommend" apart from
// "the engine had candidates but none could be enriched".
type RecommendationResult struct {
	Items      []EnrichedRecommendation
	Candidates int
	Dropped    int
}

// GenerationRequest is a single prompt sent to the text model
type GenerationRequest struct {
	Prompt      string
	Temperature float64
}

// GenerationResponse carries the model output
type GenerationResponse struct {
	Text string
}
