package search

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
	"github.com/pivotlog/pivotlog/internal/domain/search/mode"
	"github.com/pivotlog/pivotlog/internal/domain/search/query"
)

var testThresholds = Thresholds{
	SemanticMinSimilarity: 0.5,
	HybridMinScore:        0.3,
	AskMinSimilarity:      0.3,
}

func newTestService(repo *mockRepo, emb *mockEmbedder, ans *mockAnswerer) *Service {
	return New(repo, emb, nil, ans, nil, testThresholds)
}

func mustQuery(t *testing.T, text string, m mode.Mode, limit int, minScore float64, set bool) query.Query {
	t.Helper()
	q, err := query.New(text, m, "", limit, minScore, set, "")
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

// unitVec returns a 2-d unit vector whose cosine similarity against
// [1, 0] equals sim.
func unitVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func TestSearch_SemanticThresholdFiltering(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d-low", "Adopt queue", "Decouple services", domdec.Technical, unitVec(0.2), base),
		testDecision("d-high", "Adopt cache", "Reduce load", domdec.Technical, unitVec(0.8), base),
		testDecision("d-mid", "Adopt CDN", "Static assets", domdec.Technical, unitVec(0.55), base),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{1, 0}}, nil)

	q := mustQuery(t, "infrastructure change", mode.Semantic, 10, 0, false)
	results, total, err := svc.Search(context.Background(), "owner-1", &q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Fatalf("got %d results (total %d), want 2", len(results), total)
	}
	if results[0].Decision().ID() != "d-high" || results[1].Decision().ID() != "d-mid" {
		t.Errorf("order = [%s, %s], want [d-high, d-mid]",
			results[0].Decision().ID(), results[1].Decision().ID())
	}
	if sim, ok := results[0].Similarity(); !ok || math.Abs(sim-0.8) > 1e-5 {
		t.Errorf("similarity = %v (present %v), want 0.8", sim, ok)
	}
	if !repo.gotFilter.RequireEmbedding {
		t.Error("semantic mode must request embedded candidates only")
	}
}

func TestSearch_HybridThresholdFiltering(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	// No keyword overlap with the query, so fused score is similarity*0.7.
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d1", "Adopt cache", "Reduce load", domdec.Technical, unitVec(0.8), base),
		testDecision("d2", "Adopt CDN", "Static assets", domdec.Technical, unitVec(0.5), base),
		testDecision("d3", "Adopt queue", "Decouple services", domdec.Technical, unitVec(0.2), base),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{1, 0}}, nil)

	q := mustQuery(t, "unrelated wording", mode.Hybrid, 10, 0.3, true)
	results, _, err := svc.Search(context.Background(), "owner-1", &q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Decision().ID() != "d1" || results[1].Decision().ID() != "d2" {
		t.Errorf("order = [%s, %s], want [d1, d2]",
			results[0].Decision().ID(), results[1].Decision().ID())
	}
	if math.Abs(results[0].Score()-0.56) > 1e-5 {
		t.Errorf("score = %v, want 0.56", results[0].Score())
	}
	if repo.gotFilter.RequireEmbedding {
		t.Error("hybrid mode must include embedding-less candidates")
	}
}

func TestSearch_TieBreakByExtractionTime(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	vec := unitVec(0.9)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d-old", "Adopt cache", "Reduce load", domdec.Technical, vec, older),
		testDecision("d-new", "Adopt cache", "Reduce load", domdec.Technical, vec, newer),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{1, 0}}, nil)

	q := mustQuery(t, "unrelated wording", mode.Semantic, 10, 0, false)
	results, _, err := svc.Search(context.Background(), "owner-1", &q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Decision().ID() != "d-new" {
		t.Errorf("first = %s, want d-new (more recent wins the tie)", results[0].Decision().ID())
	}
}

func TestSearch_HybridDegradesWhenEmbeddingFails(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d1", "Migrate to AWS", "Lower latency", domdec.Technical, unitVec(0.9), base),
		testDecision("d2", "Keep on-prem", "Compliance first", domdec.Operational, unitVec(0.9), base),
	}}
	emb := &mockEmbedder{err: errors.New("provider down")}
	svc := newTestService(repo, emb, nil)

	q := mustQuery(t, "aws migration latency", mode.Hybrid, 10, 0, false)
	results, _, err := svc.Search(context.Background(), "owner-1", &q)
	if err != nil {
		t.Fatalf("hybrid must not fail on embedding error, got %v", err)
	}
	// d1's keyword-only score is 2/3 * 0.3 = 0.2 ("aws" and "latency"
	// match, "migration" does not), below the 0.3 default threshold.
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0 under default threshold", len(results))
	}

	q2 := mustQuery(t, "aws migration latency", mode.Hybrid, 10, 0.1, true)
	results, _, err = svc.Search(context.Background(), "owner-1", &q2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Decision().ID() != "d1" {
		t.Fatalf("got %v, want only d1", results)
	}
	if _, ok := results[0].Similarity(); ok {
		t.Error("degraded result must not carry a similarity")
	}
	if math.Abs(results[0].Score()-0.2) > 1e-9 {
		t.Errorf("score = %v, want 0.2 (keyword-only)", results[0].Score())
	}
}

func TestSearch_SemanticFailsWhenEmbeddingFails(t *testing.T) {
	provErr := errors.New("provider down")
	svc := newTestService(&mockRepo{}, &mockEmbedder{err: provErr}, nil)

	q := mustQuery(t, "anything", mode.Semantic, 10, 0, false)
	_, _, err := svc.Search(context.Background(), "owner-1", &q)
	if !errors.Is(err, provErr) {
		t.Fatalf("err = %v, want wrapped provider error", err)
	}
}

func TestSearch_MalformedCandidateEmbeddingSkipped(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		// Wrong dimensionality: similarity collapses to 0 instead of erroring.
		testDecision("d-bad", "Adopt cache", "Reduce load", domdec.Technical, []float32{1, 0, 0}, base),
		testDecision("d-ok", "Adopt CDN", "Static assets", domdec.Technical, unitVec(0.9), base),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{1, 0}}, nil)

	q := mustQuery(t, "unrelated wording", mode.Semantic, 10, 0, false)
	results, _, err := svc.Search(context.Background(), "owner-1", &q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Decision().ID() != "d-ok" {
		t.Fatalf("got %v, want only d-ok", results)
	}
}

func TestSearch_KeywordMode(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d-both", "Cloud migration plan", "Move workloads", domdec.Technical, nil, base),
		testDecision("d-one", "Cloud backup policy", "Weekly snapshots", domdec.Operational, nil, base.Add(time.Hour)),
		testDecision("d-none", "Hire two engineers", "Team is stretched", domdec.Strategic, nil, base),
	}}
	emb := &mockEmbedder{vec: []float32{1, 0}}
	svc := newTestService(repo, emb, nil)

	q := mustQuery(t, "cloud migration", mode.Keyword, 10, 0, false)
	results, _, err := svc.Search(context.Background(), "owner-1", &q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if emb.calls != 0 {
		t.Error("keyword mode must not call the embedding provider")
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (zero-score candidates dropped)", len(results))
	}
	if results[0].Decision().ID() != "d-both" {
		t.Errorf("first = %s, want d-both (higher keyword score)", results[0].Decision().ID())
	}
	if results[0].Score() != 1.0 {
		// Both tokens matched plus the exact phrase bonus, clamped.
		t.Errorf("score = %v, want 1.0", results[0].Score())
	}
	if math.Abs(results[1].Score()-0.5) > 1e-9 {
		t.Errorf("score = %v, want 0.5", results[1].Score())
	}
	if got := results[0].MatchedKeywords(); len(got) != 2 {
		t.Errorf("matched keywords = %v, want both tokens", got)
	}
}

func TestSearch_LimitTruncation(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var cands []domdec.Decision
	for _, id := range []string{"d1", "d2", "d3", "d4"} {
		cands = append(cands, testDecision(id, "Adopt cache", "Reduce load", domdec.Technical, unitVec(0.9), base))
	}
	repo := &mockRepo{candidates: cands}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{1, 0}}, nil)

	q := mustQuery(t, "unrelated wording", mode.Semantic, 2, 0, false)
	results, total, err := svc.Search(context.Background(), "owner-1", &q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || total != 2 {
		t.Errorf("got %d results (total %d), want 2", len(results), total)
	}
}

func TestSearch_EndToEndHybridExample(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d1", "Migrate to AWS", "Lower latency for EU customers",
			domdec.Technical, unitVec(0.72), base),
	}}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{1, 0}}, nil)

	q := mustQuery(t, "why cloud migration", mode.Hybrid, 10, 0.3, true)
	results, _, err := svc.Search(context.Background(), "owner-1", &q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	// No query token appears verbatim in the text, so the fused score is
	// the semantic contribution alone.
	if got := results[0].Score(); math.Abs(got-0.504) > 1e-5 {
		t.Errorf("score = %v, want 0.504", got)
	}
	if sim, ok := results[0].Similarity(); !ok || math.Abs(sim-0.72) > 1e-5 {
		t.Errorf("similarity = %v (present %v), want 0.72", sim, ok)
	}
}

func TestSearch_PerRequestKeyOverride(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d1", "Adopt cache", "Reduce load", domdec.Technical, unitVec(0.9), base),
	}}
	defaultEmb := &mockEmbedder{vec: []float32{1, 0}}
	overrideEmb := &mockEmbedder{vec: []float32{1, 0}}

	var gotKey string
	factory := func(apiKey string) domain.Embedder {
		gotKey = apiKey
		return overrideEmb
	}
	svc := New(repo, defaultEmb, factory, nil, nil, testThresholds)

	q, err := query.New("unrelated wording", mode.Semantic, "", 10, 0, false, "caller-key")
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	if _, _, err := svc.Search(context.Background(), "owner-1", &q); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotKey != "caller-key" {
		t.Errorf("factory key = %q, want caller-key", gotKey)
	}
	if overrideEmb.calls != 1 || defaultEmb.calls != 0 {
		t.Errorf("override calls = %d, default calls = %d; want 1 and 0",
			overrideEmb.calls, defaultEmb.calls)
	}
}

func TestAsk_SynthesizesAnswer(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d1", "Migrate to AWS", "Lower latency", domdec.Technical, unitVec(0.9), base),
	}}
	ans := &mockAnswerer{answer: "You migrated to AWS for latency."}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{1, 0}}, ans)

	answer, results, err := svc.Ask(context.Background(), "owner-1", "why aws", 5, "")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "You migrated to AWS for latency." {
		t.Errorf("answer = %q", answer)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if len(ans.gotDecisions) != 1 || ans.gotDecisions[0].Decision != "Migrate to AWS" {
		t.Errorf("answerer context = %+v", ans.gotDecisions)
	}
	if ans.gotDecisions[0].Category != "Technical" {
		t.Errorf("category = %q, want Technical", ans.gotDecisions[0].Category)
	}
}

func TestAsk_CannedAnswerWhenNoResults(t *testing.T) {
	ans := &mockAnswerer{answer: "should not be used"}
	svc := newTestService(&mockRepo{}, &mockEmbedder{vec: []float32{1, 0}}, ans)

	answer, results, err := svc.Ask(context.Background(), "owner-1", "anything", 5, "")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != NoResultsAnswer {
		t.Errorf("answer = %q, want canned fallback", answer)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
	if ans.calls != 0 {
		t.Error("answerer must not be called with zero results")
	}
}

func TestAsk_AnswerFailureDoesNotFailRequest(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d1", "Migrate to AWS", "Lower latency", domdec.Technical, unitVec(0.9), base),
	}}
	ans := &mockAnswerer{err: errors.New("generation failed")}
	svc := newTestService(repo, &mockEmbedder{vec: []float32{1, 0}}, ans)

	answer, results, err := svc.Ask(context.Background(), "owner-1", "why aws", 5, "")
	if err != nil {
		t.Fatalf("Ask must not fail on answer error, got %v", err)
	}
	if answer != "" {
		t.Errorf("answer = %q, want empty", answer)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want the matches regardless", len(results))
	}
}

func TestAsk_KeywordFallbackWhenEmbeddingFails(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d-old", "Cloud migration plan", "Move workloads", domdec.Technical, nil, older),
		testDecision("d-new", "Cloud budget review", "Spend is growing", domdec.Cost, nil, newer),
	}}
	ans := &mockAnswerer{answer: "Recent cloud decisions follow."}
	svc := newTestService(repo, &mockEmbedder{err: errors.New("provider down")}, ans)

	answer, results, err := svc.Ask(context.Background(), "owner-1", "cloud", 5, "")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "Recent cloud decisions follow." {
		t.Errorf("answer = %q", answer)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Decision().ID() != "d-new" {
		t.Errorf("fallback must order by recency, first = %s", results[0].Decision().ID())
	}
}

func TestAsk_KeywordFallbackKeepsMostRecent(t *testing.T) {
	// More matches than the limit: the kept subset is the most recent,
	// not the highest scored.
	oldest := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	middle := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	newest := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{candidates: []domdec.Decision{
		testDecision("d-old-strong", "Cloud migration plan", "Full cloud migration roadmap", domdec.Technical, nil, oldest),
		testDecision("d-mid-strong", "Cloud migration budget", "Fund the cloud migration", domdec.Cost, nil, middle),
		testDecision("d-newest-weak", "Cloud vendor shortlist", "Pick a provider", domdec.Strategic, nil, newest),
	}}
	ans := &mockAnswerer{answer: "ok"}
	svc := newTestService(repo, &mockEmbedder{err: errors.New("provider down")}, ans)

	_, results, err := svc.Ask(context.Background(), "owner-1", "cloud migration", 2, "")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Decision().ID() != "d-newest-weak" || results[1].Decision().ID() != "d-mid-strong" {
		t.Errorf("kept = [%s %s], want the two most recent matches",
			results[0].Decision().ID(), results[1].Decision().ID())
	}
}
