package decision

import (
	"context"

	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
)

// Repository is the corpus contract for decision lifecycle operations.
type Repository interface {
	Upsert(ctx context.Context, d *domdec.Decision) (bool, error)
	Get(ctx context.Context, ownerID, id string) (domdec.Decision, error)
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string, category domdec.Category, cursor string, limit int) (
		[]domdec.Decision, string, error,
	)
}

// Embedder vectorizes decision text at ingestion time.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
