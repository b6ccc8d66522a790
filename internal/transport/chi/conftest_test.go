package chi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sort"
	"time"

	chiv5 "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
	backfilluc "github.com/pivotlog/pivotlog/internal/usecase/backfill"
	decisionuc "github.com/pivotlog/pivotlog/internal/usecase/decision"
	healthuc "github.com/pivotlog/pivotlog/internal/usecase/health"
	searchuc "github.com/pivotlog/pivotlog/internal/usecase/search"
)

// memRepo is an in-memory corpus backing every repository contract the
// handlers reach through their services.
type memRepo struct {
	decisions map[string]domdec.Decision
}

func newMemRepo() *memRepo {
	return &memRepo{decisions: make(map[string]domdec.Decision)}
}

func (m *memRepo) put(d domdec.Decision) { m.decisions[d.ID()] = d }

func (m *memRepo) owned(ownerID string) []domdec.Decision {
	var out []domdec.Decision
	for _, d := range m.decisions {
		if d.OwnerID() == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (m *memRepo) Upsert(_ context.Context, d *domdec.Decision) (bool, error) {
	_, existed := m.decisions[d.ID()]
	m.decisions[d.ID()] = *d
	return !existed, nil
}

func (m *memRepo) Get(_ context.Context, ownerID, id string) (domdec.Decision, error) {
	d, ok := m.decisions[id]
	if !ok || d.OwnerID() != ownerID {
		return domdec.Decision{}, domain.ErrDecisionNotFound
	}
	return d, nil
}

func (m *memRepo) Delete(_ context.Context, ownerID, id string) error {
	d, ok := m.decisions[id]
	if !ok || d.OwnerID() != ownerID {
		return domain.ErrDecisionNotFound
	}
	delete(m.decisions, id)
	return nil
}

func (m *memRepo) List(
	_ context.Context, ownerID string, category domdec.Category, _ string, _ int,
) ([]domdec.Decision, string, error) {
	var out []domdec.Decision
	for _, d := range m.owned(ownerID) {
		if category != "" && d.Category() != category {
			continue
		}
		out = append(out, d)
	}
	return out, "", nil
}

func (m *memRepo) FindCandidates(
	_ context.Context, ownerID string, f domdec.CandidateFilter,
) ([]domdec.Decision, error) {
	var out []domdec.Decision
	for _, d := range m.owned(ownerID) {
		if f.Category != "" && d.Category() != f.Category {
			continue
		}
		if f.RequireEmbedding && !d.HasEmbedding() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memRepo) GetMany(_ context.Context, ownerID string, ids []string) ([]domdec.Decision, error) {
	var out []domdec.Decision
	for _, id := range ids {
		d, ok := m.decisions[id]
		if !ok || d.OwnerID() != ownerID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memRepo) ListMissingEmbedding(_ context.Context, ownerID string) ([]domdec.Decision, error) {
	var out []domdec.Decision
	for _, d := range m.owned(ownerID) {
		if !d.HasEmbedding() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memRepo) PersistEmbedding(
	_ context.Context, ownerID, id string, vec []float32, searchableText string,
) error {
	d, ok := m.decisions[id]
	if !ok || d.OwnerID() != ownerID {
		return domain.ErrDecisionNotFound
	}
	d.SetEmbedding(vec, searchableText)
	m.decisions[id] = d
	return nil
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec, TotalTokens: 3}, nil
}

type stubAnswerer struct {
	answer string
	err    error
}

func (s *stubAnswerer) Answer(context.Context, string, []domain.DecisionContext) (string, error) {
	return s.answer, s.err
}

type stubPinger struct{ err error }

func (s *stubPinger) Ping(context.Context) error { return s.err }

type testHarness struct {
	repo    *memRepo
	emb     *stubEmbedder
	ans     *stubAnswerer
	pinger  *stubPinger
	handler http.Handler
}

func newTestHarness() *testHarness {
	repo := newMemRepo()
	emb := &stubEmbedder{vec: []float32{1, 0}}
	ans := &stubAnswerer{answer: "synthesized answer"}
	pinger := &stubPinger{}

	searchSvc := searchuc.New(repo, emb, nil, ans, nil, searchuc.Thresholds{
		SemanticMinSimilarity: 0.5,
		HybridMinScore:        0.3,
		AskMinSimilarity:      0.3,
	})
	backfillSvc := backfilluc.New(repo, emb, nil, time.Millisecond)
	decisionSvc := decisionuc.New(repo, emb, nil)
	healthSvc := healthuc.New(pinger, nil)

	server := NewServer(searchSvc, backfillSvc, decisionSvc, healthSvc, zap.NewNop())

	r := chiv5.NewRouter()
	r.Use(BearerAuthMiddleware(nil, "owner-1"))
	server.Routes(r)

	return &testHarness{repo: repo, emb: emb, ans: ans, pinger: pinger, handler: r}
}

// seedDecision stores an owner-1 decision; sim is its cosine similarity
// against the stub query embedding [1, 0].
func (h *testHarness) seedDecision(id, statement, rationale string, cat domdec.Category, sim float64, at time.Time) {
	var vec []float32
	text := ""
	if sim >= 0 {
		vec = unitVec(sim)
		text = domdec.BuildSearchableText(statement, rationale, "", string(cat))
	}
	h.repo.put(domdec.Reconstruct(
		id, "owner-1", "proj-1", "doc-1",
		statement, rationale, "",
		cat, 80, nil, domdec.StatusApproved,
		vec, text, at,
	))
}

func unitVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

var errProviderDown = errors.New("provider down")
