package result

import "github.com/pivotlog/pivotlog/internal/domain/decision"

// Result is a single scored search hit. Which score fields are present depends
// on the mode: semantic results carry only a similarity, hybrid results carry
// a fused score plus an optional similarity, keyword results carry a keyword
// score. Absence is explicit, never inferred from a zero value.
type Result struct {
	dec             decision.Decision
	score           float64
	similarity      float64
	hasSimilarity   bool
	matchedKeywords []string
}

// NewSemantic creates a result ranked by cosine similarity alone.
func NewSemantic(d decision.Decision, similarity float64) Result {
	return Result{dec: d, score: similarity, similarity: similarity, hasSimilarity: true}
}

// NewHybrid creates a result with a fused score. hasSimilarity is false when
// the candidate (or the query) had no embedding and only keywords contributed.
func NewHybrid(
	d decision.Decision, score, similarity float64, hasSimilarity bool, matched []string,
) Result {
	return Result{
		dec:             d,
		score:           score,
		similarity:      similarity,
		hasSimilarity:   hasSimilarity,
		matchedKeywords: matched,
	}
}

// NewKeyword creates a result ranked by the normalized keyword score.
func NewKeyword(d decision.Decision, score float64, matched []string) Result {
	return Result{dec: d, score: score, matchedKeywords: matched}
}

// Decision returns the matched decision.
func (r *Result) Decision() decision.Decision { return r.dec }

// Score returns the ranking score for the mode that produced this result.
func (r *Result) Score() float64 { return r.score }

// Similarity returns the cosine similarity and whether one was computed.
func (r *Result) Similarity() (float64, bool) { return r.similarity, r.hasSimilarity }

// MatchedKeywords returns the query tokens found in the decision text,
// nil when keyword scoring did not run.
func (r *Result) MatchedKeywords() []string { return r.matchedKeywords }
