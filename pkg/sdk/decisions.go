package pivotlog

import (
	"context"
	"fmt"
	"time"

	decisionuc "github.com/pivotlog/pivotlog/internal/usecase/decision"
)

// DecisionService manages the decision archive for a single owner.
type DecisionService struct {
	owner string
	svc   decisionUseCase
	obs   *observer
}

// Upsert creates or updates a decision, computing its embedding when an
// embedder is configured. Returns the stored decision and true if created.
func (s *DecisionService) Upsert(ctx context.Context, in DecisionInput) (_ Decision, _ bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("upsert_decision", start, err) }()

	d, created, err := s.svc.Ingest(ctx, s.owner, decisionuc.IngestInput{
		ID:             in.ID,
		ProjectID:      in.ProjectID,
		DocumentID:     in.DocumentID,
		Statement:      in.Statement,
		Rationale:      in.Rationale,
		Summary:        in.Summary,
		Category:       in.Category,
		Confidence:     in.Confidence,
		EvidenceQuotes: in.EvidenceQuotes,
		Status:         in.Status,
		ExtractedAt:    in.ExtractedAt,
	}, "")
	if err != nil {
		return Decision{}, false, fmt.Errorf("upsert decision: %w", err)
	}
	return fromInternalDecision(d), created, nil
}

// Get retrieves a decision by ID.
func (s *DecisionService) Get(ctx context.Context, id string) (_ Decision, err error) {
	start := time.Now()
	defer func() { s.obs.observe("get_decision", start, err) }()

	d, err := s.svc.Get(ctx, s.owner, id)
	if err != nil {
		return Decision{}, fmt.Errorf("get decision: %w", err)
	}
	return fromInternalDecision(d), nil
}

// List returns a page of decisions, most recent first.
func (s *DecisionService) List(ctx context.Context, opts ListOptions) (_ ListResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("list_decisions", start, err) }()

	ds, next, err := s.svc.List(ctx, s.owner, opts.Category, opts.Cursor, opts.Limit)
	if err != nil {
		return ListResult{}, fmt.Errorf("list decisions: %w", err)
	}
	out := make([]Decision, len(ds))
	for i := range ds {
		out[i] = fromInternalDecision(ds[i])
	}
	return ListResult{Decisions: out, NextCursor: next}, nil
}

// Delete removes a decision by ID.
func (s *DecisionService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("delete_decision", start, err) }()

	if err = s.svc.Delete(ctx, s.owner, id); err != nil {
		return fmt.Errorf("delete decision: %w", err)
	}
	return nil
}
