package pivotlog

import (
	"context"
	"fmt"
	"time"

	"github.com/pivotlog/pivotlog/internal/domain/search/mode"
	"github.com/pivotlog/pivotlog/internal/domain/search/query"
)

// SearchService ranks archived decisions against a query.
type SearchService struct {
	owner string
	svc   searchUseCase
	obs   *observer
}

// Semantic ranks decisions by cosine similarity of embeddings.
// Requires an embedder; decisions without embeddings are skipped.
func (s *SearchService) Semantic(ctx context.Context, text string, opts SearchOptions) ([]ScoredDecision, error) {
	return s.search(ctx, text, mode.Semantic, opts)
}

// Hybrid ranks decisions by a weighted blend of semantic similarity and
// keyword overlap. Degrades to keyword-only scoring when no embedder is
// configured or the embedding call fails.
func (s *SearchService) Hybrid(ctx context.Context, text string, opts SearchOptions) ([]ScoredDecision, error) {
	return s.search(ctx, text, mode.Hybrid, opts)
}

// Keyword ranks decisions by token overlap alone. Works without an embedder.
func (s *SearchService) Keyword(ctx context.Context, text string, opts SearchOptions) ([]ScoredDecision, error) {
	return s.search(ctx, text, mode.Keyword, opts)
}

func (s *SearchService) search(
	ctx context.Context, text string, m mode.Mode, opts SearchOptions,
) (_ []ScoredDecision, err error) {
	start := time.Now()
	op := "search_" + string(m)
	defer func() { s.obs.observe(op, start, err) }()

	var minScore float64
	minScoreSet := false
	if opts.MinScore != nil {
		minScore = *opts.MinScore
		minScoreSet = true
	}
	q, err := query.New(text, m, opts.Category, opts.Limit, minScore, minScoreSet, "")
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results, _, err := s.svc.Search(ctx, s.owner, &q)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromInternalResults(results), nil
}

// Ask answers a natural-language question from the decision archive.
// With no relevant decisions the answer states that none were found; when
// answer synthesis fails the matched decisions are still returned with an
// empty answer.
func (s *SearchService) Ask(ctx context.Context, question string, limit int) (_ AskResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ask", start, err) }()

	answer, results, err := s.svc.Ask(ctx, s.owner, question, limit, "")
	if err != nil {
		return AskResult{}, fmt.Errorf("ask: %w", err)
	}
	return AskResult{Answer: answer, Decisions: fromInternalResults(results)}, nil
}
