package pivotlog

import "context"

// Embedder converts text to vector embeddings.
// Required for semantic search; hybrid search degrades to keyword scoring
// without it.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Answerer synthesizes a natural-language answer from matched decisions.
// Optional — Ask returns the matched decisions with an empty answer when no
// answerer is configured.
type Answerer interface {
	Answer(ctx context.Context, query string, decisions []DecisionContext) (string, error)
}

// DecisionContext is the slice of a decision handed to the answerer.
type DecisionContext struct {
	Decision  string
	Rationale string
	Category  string
}
