package chi

import (
	"time"

	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
	"github.com/pivotlog/pivotlog/internal/domain/search/result"
)

// errorCode classifies API failures for clients.
type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeValidationFailed     errorCode = "validation_failed"
	codeUnauthorized         errorCode = "unauthorized"
	codeDecisionNotFound     errorCode = "decision_not_found"
	codeRateLimited          errorCode = "rate_limited"
	codeEmbeddingProviderErr errorCode = "embedding_provider_error"
	codeAnswerProviderErr    errorCode = "answer_provider_error"
	codeInternalError        errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// decisionDTO is the wire representation of a stored decision.
type decisionDTO struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"projectId,omitempty"`
	DocumentID     string    `json:"documentId,omitempty"`
	Decision       string    `json:"decision"`
	Rationale      string    `json:"rationale"`
	Summary        string    `json:"summary,omitempty"`
	Category       string    `json:"category"`
	Confidence     int       `json:"confidenceScore"`
	EvidenceQuotes []string  `json:"evidenceQuotes,omitempty"`
	Status         string    `json:"status"`
	HasEmbedding   bool      `json:"hasEmbedding"`
	ExtractedAt    time.Time `json:"extractedAt"`
}

// scoredResultDTO is a decision plus the score fields its mode produced.
// Absent scores are omitted rather than zeroed.
type scoredResultDTO struct {
	decisionDTO
	SimilarityScore *float64 `json:"similarityScore,omitempty"`
	SearchScore     *float64 `json:"searchScore,omitempty"`
	MatchedKeywords []string `json:"matchedKeywords,omitempty"`
}

type ingestRequest struct {
	ProjectID      string     `json:"projectId"`
	DocumentID     string     `json:"documentId"`
	Decision       string     `json:"decision"`
	Rationale      string     `json:"rationale"`
	Summary        string     `json:"summary"`
	Category       string     `json:"category"`
	Confidence     int        `json:"confidenceScore"`
	EvidenceQuotes []string   `json:"evidenceQuotes"`
	Status         string     `json:"status"`
	ExtractedAt    *time.Time `json:"extractedAt"`
}

type listDecisionsResponse struct {
	Items      []decisionDTO `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
	HasMore    bool          `json:"hasMore"`
}

type searchRequest struct {
	Query         string   `json:"query"`
	Limit         int      `json:"limit"`
	Category      string   `json:"category"`
	MinScore      *float64 `json:"minScore"`
	MinSimilarity *float64 `json:"minSimilarity"`
}

type searchResponse struct {
	Query      string            `json:"query"`
	Results    []scoredResultDTO `json:"results"`
	Total      int               `json:"total"`
	SearchType string            `json:"searchType,omitempty"`
}

type legacySearchResponse struct {
	Query   string            `json:"query"`
	Results []scoredResultDTO `json:"results"`
	Answer  string            `json:"answer"`
}

type backfillRequest struct {
	DecisionIDs []string `json:"decisionIds"`
}

type backfillResponse struct {
	Message      string `json:"message"`
	SuccessCount int    `json:"successCount"`
	ErrorCount   int    `json:"errorCount"`
	Total        int    `json:"total"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func decisionToDTO(d domdec.Decision) decisionDTO {
	return decisionDTO{
		ID:             d.ID(),
		ProjectID:      d.ProjectID(),
		DocumentID:     d.DocumentID(),
		Decision:       d.Statement(),
		Rationale:      d.Rationale(),
		Summary:        d.Summary(),
		Category:       string(d.Category()),
		Confidence:     d.Confidence(),
		EvidenceQuotes: d.EvidenceQuotes(),
		Status:         string(d.Status()),
		HasEmbedding:   d.HasEmbedding(),
		ExtractedAt:    d.ExtractedAt().UTC(),
	}
}

func resultToDTO(r result.Result, includeSearchScore bool) scoredResultDTO {
	dto := scoredResultDTO{decisionDTO: decisionToDTO(r.Decision())}

	if sim, ok := r.Similarity(); ok {
		s := sim
		dto.SimilarityScore = &s
	}
	if includeSearchScore {
		score := r.Score()
		dto.SearchScore = &score
	}
	dto.MatchedKeywords = r.MatchedKeywords()
	return dto
}

func resultsToDTO(results []result.Result, includeSearchScore bool) []scoredResultDTO {
	out := make([]scoredResultDTO, len(results))
	for i, r := range results {
		out[i] = resultToDTO(r, includeSearchScore)
	}
	return out
}
