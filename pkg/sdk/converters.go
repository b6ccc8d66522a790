package pivotlog

import (
	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
	"github.com/pivotlog/pivotlog/internal/domain/search/result"
)

func fromInternalDecision(d domdec.Decision) Decision {
	return Decision{
		ID:             d.ID(),
		ProjectID:      d.ProjectID(),
		DocumentID:     d.DocumentID(),
		Statement:      d.Statement(),
		Rationale:      d.Rationale(),
		Summary:        d.Summary(),
		Category:       string(d.Category()),
		Confidence:     d.Confidence(),
		EvidenceQuotes: d.EvidenceQuotes(),
		Status:         string(d.Status()),
		HasEmbedding:   d.HasEmbedding(),
		ExtractedAt:    d.ExtractedAt(),
	}
}

func fromInternalResult(r result.Result) ScoredDecision {
	sd := ScoredDecision{
		Decision:        fromInternalDecision(r.Decision()),
		Score:           r.Score(),
		MatchedKeywords: r.MatchedKeywords(),
	}
	if sim, ok := r.Similarity(); ok {
		sd.Similarity = &sim
	}
	return sd
}

func fromInternalResults(rs []result.Result) []ScoredDecision {
	out := make([]ScoredDecision, len(rs))
	for i := range rs {
		out[i] = fromInternalResult(rs[i])
	}
	return out
}
