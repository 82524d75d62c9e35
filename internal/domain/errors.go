package domain

import "errors"

var (
	// ErrUpstreamUnavailable is returned when the scoring engine cannot be reached or fails.
	// It is the only error that fails a recommendation request.
	ErrUpstreamUnavailable = errors.New("scoring engine unavailable")

	// ErrProductNotFound is recorded when a candidate has no matching catalog record
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrCatalogUnavailable is returned when the document store query fails
	ErrCatalogUnavailable = errors.New("catalog lookup failed")

	// ErrExplanationGeneration is returned when the text model fails to produce a justification
	ErrExplanationGeneration = errors.New("explanation generation failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
)
