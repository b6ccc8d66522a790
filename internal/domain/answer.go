package domain

import "context"

// DecisionContext is the slice of a decision handed to the answer generator.
type DecisionContext struct {
	Decision  string
	Rationale string
	Category  string
}

// Answerer synthesizes a natural-language answer from retrieved decisions.
type Answerer interface {
	Answer(ctx context.Context, query string, decisions []DecisionContext) (string, error)
}

// AnswererFactory derives an answerer bound to a caller-supplied API key.
type AnswererFactory func(apiKey string) Answerer
