package search

import (
	"context"

	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
)

// CandidateReader reads scoring candidates from the decision corpus.
type CandidateReader interface {
	FindCandidates(
		ctx context.Context, ownerID string, f domdec.CandidateFilter,
	) ([]domdec.Decision, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Answerer synthesizes a natural-language answer from retrieved decisions.
type Answerer interface {
	Answer(ctx context.Context, query string, decisions []domain.DecisionContext) (string, error)
}
