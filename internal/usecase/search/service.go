package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
	"github.com/pivotlog/pivotlog/internal/domain/search/mode"
	"github.com/pivotlog/pivotlog/internal/domain/search/query"
	"github.com/pivotlog/pivotlog/internal/domain/search/result"
	"github.com/pivotlog/pivotlog/internal/logger"
	"github.com/pivotlog/pivotlog/internal/metrics"
)

// NoResultsAnswer is the canned reply for the answer endpoint when nothing matched.
const NoResultsAnswer = "No relevant decisions found in your archive."

// DefaultAskLimit is the answer endpoint's result cap when none is given.
const DefaultAskLimit = 5

// Thresholds are the per-mode minimum-score defaults, applied only when the
// caller did not supply an explicit threshold. Keyword mode has no default:
// any candidate with at least one matched token qualifies.
type Thresholds struct {
	SemanticMinSimilarity float64
	HybridMinScore        float64
	AskMinSimilarity      float64
}

// Service ranks decisions against a query across semantic, hybrid, and
// keyword modes, all three sharing one scoring pipeline.
type Service struct {
	repo        CandidateReader
	embed       Embedder
	embedderFor domain.EmbedderFactory
	answer      Answerer
	answererFor domain.AnswererFactory
	thresholds  Thresholds
}

// New creates a search service. The factories derive providers bound to a
// caller-supplied API key; either may be nil to disable per-request overrides.
func New(
	repo CandidateReader,
	embed Embedder,
	embedderFor domain.EmbedderFactory,
	answer Answerer,
	answererFor domain.AnswererFactory,
	thresholds Thresholds,
) *Service {
	return &Service{
		repo:        repo,
		embed:       embed,
		embedderFor: embedderFor,
		answer:      answer,
		answererFor: answererFor,
		thresholds:  thresholds,
	}
}

// Search ranks the owner's decisions against the query and returns the top
// matches plus the total returned. Each call is stateless.
func (s *Service) Search(
	ctx context.Context, ownerID string, q *query.Query,
) ([]result.Result, int, error) {
	start := time.Now()
	m := string(q.Mode())

	results, err := s.search(ctx, ownerID, q)

	metrics.SearchDuration.WithLabelValues(m).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(m, "error").Inc()
		return nil, 0, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(m, "success").Inc()
	metrics.SearchResultCount.WithLabelValues(m).Observe(float64(len(results)))

	return results, len(results), nil
}

func (s *Service) search(
	ctx context.Context, ownerID string, q *query.Query,
) ([]result.Result, error) {
	var queryVec []float32
	if q.Mode().NeedsEmbedding() {
		embRes, err := s.embedder(q).Embed(ctx, q.Text())
		switch {
		case err != nil && q.Mode() == mode.Semantic:
			return nil, fmt.Errorf("embed query: %w", err)
		case err != nil:
			// Hybrid degrades to keyword-only scoring.
			logger.FromContext(ctx).Warn("query embedding failed, degrading to keyword scoring",
				zap.Error(err))
		default:
			queryVec = embRes.Embedding
		}
	}

	candidates, err := s.repo.FindCandidates(ctx, ownerID, domdec.CandidateFilter{
		Category:         q.Category(),
		RequireEmbedding: q.Mode() == mode.Semantic,
	})
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	var results []result.Result
	switch q.Mode() {
	case mode.Semantic:
		results = s.scoreSemantic(queryVec, candidates, q)
	case mode.Hybrid:
		results = s.scoreHybrid(queryVec, candidates, q)
	case mode.Keyword:
		results = s.scoreKeyword(candidates, q)
	}

	sortResults(results)

	if len(results) > q.Limit() {
		results = results[:q.Limit()]
	}
	return results, nil
}

func (s *Service) scoreSemantic(
	queryVec []float32, candidates []domdec.Decision, q *query.Query,
) []result.Result {
	min := s.minScore(q, s.thresholds.SemanticMinSimilarity)

	var results []result.Result
	for _, cand := range candidates {
		sim := CosineSimilarity(queryVec, cand.Embedding())
		if sim < min {
			continue
		}
		results = append(results, result.NewSemantic(cand, sim))
	}
	return results
}

func (s *Service) scoreHybrid(
	queryVec []float32, candidates []domdec.Decision, q *query.Query,
) []result.Result {
	min := s.minScore(q, s.thresholds.HybridMinScore)
	tokens := queryTokens(q.Text())

	var results []result.Result
	for _, cand := range candidates {
		km := scoreKeywords(tokens, q.Text(), candidateText(cand))

		var sim float64
		hasSim := len(queryVec) > 0 && cand.HasEmbedding()
		if hasSim {
			sim = CosineSimilarity(queryVec, cand.Embedding())
		}

		score := fuseHybrid(sim, hasSim, km)
		if score < min {
			continue
		}
		results = append(results, result.NewHybrid(cand, score, sim, hasSim, km.matched))
	}
	return results
}

func (s *Service) scoreKeyword(candidates []domdec.Decision, q *query.Query) []result.Result {
	min, set := q.MinScore()
	tokens := queryTokens(q.Text())

	var results []result.Result
	for _, cand := range candidates {
		km := scoreKeywords(tokens, q.Text(), candidateText(cand))
		score := keywordScore(km)
		if score == 0 {
			continue
		}
		if set && score < min {
			continue
		}
		results = append(results, result.NewKeyword(cand, score, km.matched))
	}
	return results
}

// Ask runs the single-query answer flow: semantic search with the answer
// threshold, keyword fallback when the query cannot be embedded, then a
// synthesized natural-language answer over the top matches. Answer-generation
// failure never fails the request; the caller gets results and an empty answer.
func (s *Service) Ask(
	ctx context.Context, ownerID, text string, limit int, apiKey string,
) (string, []result.Result, error) {
	if limit <= 0 {
		limit = DefaultAskLimit
	}

	q, err := query.New(text, mode.Semantic, "", limit, s.thresholds.AskMinSimilarity, true, apiKey)
	if err != nil {
		return "", nil, err
	}

	results, _, err := s.Search(ctx, ownerID, &q)
	if err != nil {
		// The original behavior: an unreachable embedding provider falls
		// back to plain text matching, keeping the most recent matches.
		logger.FromContext(ctx).Warn("semantic answer search failed, falling back to keyword",
			zap.Error(err))
		results, err = s.keywordFallback(ctx, ownerID, text, limit)
		if err != nil {
			return "", nil, err
		}
	}

	if len(results) == 0 {
		return NoResultsAnswer, nil, nil
	}

	contexts := make([]domain.DecisionContext, 0, len(results))
	for i := range results {
		d := results[i].Decision()
		contexts = append(contexts, domain.DecisionContext{
			Decision:  d.Statement(),
			Rationale: d.Rationale(),
			Category:  string(d.Category()),
		})
	}

	answerer := s.answer
	if apiKey != "" && s.answererFor != nil {
		answerer = s.answererFor(apiKey)
	}
	answer, err := answerer.Answer(ctx, text, contexts)
	if err != nil {
		logger.FromContext(ctx).Warn("answer generation failed", zap.Error(err))
		return "", results, nil
	}
	return answer, results, nil
}

// keywordFallback text-matches the owner's decisions and keeps the limit
// most recent matches regardless of keyword score.
func (s *Service) keywordFallback(
	ctx context.Context, ownerID, text string, limit int,
) ([]result.Result, error) {
	kq, err := query.New(text, mode.Keyword, "", limit, 0, false, "")
	if err != nil {
		return nil, err
	}
	candidates, err := s.repo.FindCandidates(ctx, ownerID, domdec.CandidateFilter{})
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	results := s.scoreKeyword(candidates, &kq)
	sortByRecency(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Service) embedder(q *query.Query) Embedder {
	if key := q.APIKey(); key != "" && s.embedderFor != nil {
		return s.embedderFor(key)
	}
	return s.embed
}

func (s *Service) minScore(q *query.Query, fallback float64) float64 {
	if min, ok := q.MinScore(); ok {
		return min
	}
	return fallback
}

// candidateText returns the cached searchable text, deriving it on the fly
// for decisions the backfill has not reached yet.
func candidateText(d domdec.Decision) string {
	if t := d.SearchableText(); t != "" {
		return t
	}
	return d.BuildSearchableText()
}

// sortResults orders by score descending, then most recently extracted, then
// ID ascending so equal-score equal-time candidates order deterministically.
func sortResults(results []result.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		di, dj := results[i].Decision(), results[j].Decision()
		if !di.ExtractedAt().Equal(dj.ExtractedAt()) {
			return di.ExtractedAt().After(dj.ExtractedAt())
		}
		return di.ID() < dj.ID()
	})
}

// sortByRecency reorders keyword-fallback answers by extraction time alone.
func sortByRecency(results []result.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		di, dj := results[i].Decision(), results[j].Decision()
		if !di.ExtractedAt().Equal(dj.ExtractedAt()) {
			return di.ExtractedAt().After(dj.ExtractedAt())
		}
		return di.ID() < dj.ID()
	})
}
