package pivotlog

import "github.com/pivotlog/pivotlog/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation             = domain.ErrValidation
	ErrDecisionNotFound       = domain.ErrDecisionNotFound
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrAnswerProviderError    = domain.ErrAnswerProviderError
	ErrRateLimited            = domain.ErrRateLimited
)
