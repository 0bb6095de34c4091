package domain

import "errors"

var (
	// ErrProductNotFound is returned when the product database has no match
	ErrProductNotFound = errors.New("product not found")

	// ErrLowConfidence is returned when no search candidate matches the query well enough
	ErrLowConfidence = errors.New("match confidence below threshold")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrUpstreamFailure is returned when the product database request fails
	ErrUpstreamFailure = errors.New("product database request failed")

	// ErrOCRUnavailable is returned when no OCR service is configured or it fails
	ErrOCRUnavailable = errors.New("OCR service unavailable")

	// ErrNoNutritionData is returned when label text yields no nutrient values
	ErrNoNutritionData = errors.New("no nutrition values detected")

	// ErrInvalidPolicy is returned when a scoring policy or synonym table is malformed
	ErrInvalidPolicy = errors.New("invalid scoring policy")
)
