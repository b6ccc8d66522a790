package pivotlog

import "time"

// SearchMode controls the search algorithm.
type SearchMode string

// Search mode constants.
const (
	ModeHybrid   SearchMode = "hybrid"
	ModeSemantic SearchMode = "semantic"
	ModeKeyword  SearchMode = "keyword"
)

// Decision is an archived decision record.
type Decision struct {
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
	HasEmbedding   bool
	ExtractedAt    time.Time
}

// DecisionInput is the payload for creating or updating a decision.
// An empty ID generates a new one.
type DecisionInput struct {
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

// ScoredDecision is a single search hit.
// Similarity is nil when no cosine similarity was computed for the hit
// (keyword mode, or hybrid mode degraded to keyword-only scoring).
type ScoredDecision struct {
	Decision        Decision
	Score           float64
	Similarity      *float64
	MatchedKeywords []string
}

// SearchOptions tunes a search call. Zero values mean defaults:
// limit 10, no category filter, per-mode default threshold.
type SearchOptions struct {
	Limit    int
	Category string
	MinScore *float64
}

// AskResult is a synthesized answer plus the decisions it was grounded on.
type AskResult struct {
	Answer    string
	Decisions []ScoredDecision
}

// ListResult is a paginated list of decisions.
type ListResult struct {
	Decisions  []Decision
	NextCursor string
}

// ListOptions tunes a list call.
type ListOptions struct {
	Category string
	Cursor   string
	Limit    int
}

// BackfillReport summarizes an embedding backfill run.
type BackfillReport struct {
	SuccessCount int
	ErrorCount   int
	Total        int
}
