package backfill

import (
	"context"

	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
)

// Repository is the corpus contract for the backfill job.
type Repository interface {
	GetMany(ctx context.Context, ownerID string, ids []string) ([]domdec.Decision, error)
	ListMissingEmbedding(ctx context.Context, ownerID string) ([]domdec.Decision, error)
	PersistEmbedding(ctx context.Context, ownerID, id string, vec []float32, searchableText string) error
}

// Embedder vectorizes decision text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
