package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/recommender/backend/internal/domain"
	"github.com/recommender/backend/internal/logging"
)

const (
	serviceName = "recommender-backend"
	version     = "1.0.0"

	headerCandidates = "X-Recommendation-Candidates"
	headerDropped    = "X-Recommendation-Dropped"
)

// RecommendationProvider is the usecase the handler serves
type RecommendationProvider interface {
	GetRecommendations(ctx context.Context, userID string) (*domain.RecommendationResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	recommendations RecommendationProvider
}

// NewHandler creates a new HTTP handler
func NewHandler(recommendations RecommendationProvider) *Handler {
	return &Handler{recommendations: recommendations}
}

// Root answers the bare liveness banner
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Product Recommender API is running!")
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": version,
	})
}

// GetRecommendations returns explained recommendations for the user in rank order.
// The body is always a JSON array on success, empty when there is nothing to recommend.
func (h *Handler) GetRecommendations(c *gin.Context) {
	if h.recommendations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Recommendation service not configured"})
		return
	}

	userID := c.Param("userId")
	result, err := h.recommendations.GetRecommendations(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "userId is required"})
			return
		}
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("user_id", userID).Msg("recommendation request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Error retrieving recommendations. Check scoring service status.",
		})
		return
	}

	items := result.Items
	if items == nil {
		items = []domain.EnrichedRecommendation{}
	}

	c.Header(headerCandidates, strconv.Itoa(result.Candidates))
	c.Header(headerDropped, strconv.Itoa(result.Dropped))
	c.JSON(http.StatusOK, items)
}
