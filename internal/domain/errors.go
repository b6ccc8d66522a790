package domain

import "errors"

var (
	// ErrValidation signals a malformed request (empty query, bad limit, unknown category).
	ErrValidation = errors.New("validation failed")
	// ErrDecisionNotFound signals a missing decision.
	ErrDecisionNotFound = errors.New("decision not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrAnswerProviderError signals an answer generation failure.
	ErrAnswerProviderError = errors.New("answer provider error")
	// ErrRateLimited signals an upstream rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized signals a missing or invalid API key.
	ErrUnauthorized = errors.New("unauthorized")
)
