package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
	"github.com/pivotlog/pivotlog/internal/logger"
)

// IngestInput carries the fields of a decision to create or replace.
// An empty ID means create with a generated identifier.
type IngestInput struct {
	ID             string
	ProjectID      string
	DocumentID     string
	Statement      string
	Rationale      string
	Summary        string
	Category       string
	Confidence     int
	EvidenceQuotes []string
	Status         string
	ExtractedAt    time.Time
}

// Service manages the decision lifecycle around the search core: ingestion
// with embed-at-write, retrieval, listing, and deletion.
type Service struct {
	repo        Repository
	embed       Embedder
	embedderFor domain.EmbedderFactory
}

// New creates a decision service.
func New(repo Repository, embed Embedder, embedderFor domain.EmbedderFactory) *Service {
	return &Service{repo: repo, embed: embed, embedderFor: embedderFor}
}

// Ingest validates and stores a decision, embedding its searchable text in
// the same request. Embedding failure does not reject the write: the decision
// lands without a vector and the backfill job picks it up later.
// Returns the stored decision and whether it was newly created.
func (s *Service) Ingest(
	ctx context.Context, ownerID string, in IngestInput, apiKey string,
) (domdec.Decision, bool, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	d, err := domdec.New(
		id, ownerID, in.ProjectID, in.DocumentID,
		in.Statement, in.Rationale, in.Summary,
		domdec.Category(in.Category),
		in.Confidence,
		in.EvidenceQuotes,
		domdec.Status(in.Status),
		in.ExtractedAt,
	)
	if err != nil {
		return domdec.Decision{}, false, err
	}

	embed := s.embed
	if apiKey != "" && s.embedderFor != nil {
		embed = s.embedderFor(apiKey)
	}

	text := d.BuildSearchableText()
	if res, err := embed.Embed(ctx, text); err != nil {
		logger.FromContext(ctx).Warn("ingest: embedding failed, storing without vector",
			zap.String("decision_id", d.ID()), zap.Error(err))
	} else {
		d.SetEmbedding(res.Embedding, text)
	}

	created, err := s.repo.Upsert(ctx, &d)
	if err != nil {
		return domdec.Decision{}, false, fmt.Errorf("store decision: %w", err)
	}
	return d, created, nil
}

// Get returns one of the owner's decisions.
func (s *Service) Get(ctx context.Context, ownerID, id string) (domdec.Decision, error) {
	if id == "" {
		return domdec.Decision{}, fmt.Errorf("%w: decision id is required", domain.ErrValidation)
	}
	return s.repo.Get(ctx, ownerID, id)
}

// List returns a page of the owner's decisions, most recent first, with an
// opaque cursor for the next page. An empty category means no filter.
func (s *Service) List(
	ctx context.Context, ownerID, category, cursor string, limit int,
) ([]domdec.Decision, string, error) {
	var cat domdec.Category
	if category != "" {
		cat = domdec.Category(category)
		if !cat.IsValid() {
			return nil, "", fmt.Errorf("%w: invalid category %q", domain.ErrValidation, category)
		}
	}
	return s.repo.List(ctx, ownerID, cat, cursor, limit)
}

// Delete removes one of the owner's decisions.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if id == "" {
		return fmt.Errorf("%w: decision id is required", domain.ErrValidation)
	}
	return s.repo.Delete(ctx, ownerID, id)
}
