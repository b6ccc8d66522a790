package search

import (
	"context"
	"time"

	"github.com/pivotlog/pivotlog/internal/domain"
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
)

type mockRepo struct {
	candidates []domdec.Decision
	err        error

	gotOwner  string
	gotFilter domdec.CandidateFilter
}

func (m *mockRepo) FindCandidates(
	_ context.Context, ownerID string, f domdec.CandidateFilter,
) ([]domdec.Decision, error) {
	m.gotOwner = ownerID
	m.gotFilter = f
	if m.err != nil {
		return nil, m.err
	}
	if f.RequireEmbedding {
		var out []domdec.Decision
		for _, d := range m.candidates {
			if d.HasEmbedding() {
				out = append(out, d)
			}
		}
		return out, nil
	}
	return m.candidates, nil
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 7}, nil
}

type mockAnswerer struct {
	answer string
	err    error

	gotQuery     string
	gotDecisions []domain.DecisionContext
	calls        int
}

func (m *mockAnswerer) Answer(
	_ context.Context, q string, decisions []domain.DecisionContext,
) (string, error) {
	m.calls++
	m.gotQuery = q
	m.gotDecisions = decisions
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

// testDecision builds an owner-1 decision with the given embedding. The
// searchable text is derived the same way ingestion does it.
func testDecision(id, statement, rationale string, cat domdec.Category, vec []float32, at time.Time) domdec.Decision {
	text := ""
	if vec != nil {
		text = domdec.BuildSearchableText(statement, rationale, "", string(cat))
	}
	return domdec.Reconstruct(
		id, "owner-1", "proj-1", "doc-1",
		statement, rationale, "",
		cat, 80, nil, domdec.StatusApproved,
		vec, text, at,
	)
}
