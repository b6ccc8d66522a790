package query

import (
	"fmt"
	"strings"

	"github.com/pivotlog/pivotlog/internal/domain"
	"github.com/pivotlog/pivotlog/internal/domain/decision"
	"github.com/pivotlog/pivotlog/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 50
)

// Query is a validated, ephemeral search request.
type Query struct {
	text        string
	searchMode  mode.Mode
	category    decision.Category
	limit       int
	minScore    float64
	minScoreSet bool
	apiKey      string
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, limit=10. An unset minScore defers to the
// per-mode threshold configured on the orchestrator.
func New(
	text string,
	m mode.Mode,
	category string,
	limit int,
	minScore float64,
	minScoreSet bool,
	apiKey string,
) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Query{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrValidation, m)
	}

	var cat decision.Category
	if category != "" {
		cat = decision.Category(category)
		if !cat.IsValid() {
			return Query{}, fmt.Errorf("%w: invalid category %q", domain.ErrValidation, category)
		}
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if minScoreSet && (minScore < 0 || minScore > 1) {
		return Query{}, fmt.Errorf("%w: min score must be between 0 and 1", domain.ErrValidation)
	}

	return Query{
		text:        text,
		searchMode:  m,
		category:    cat,
		limit:       limit,
		minScore:    minScore,
		minScoreSet: minScoreSet,
		apiKey:      apiKey,
	}, nil
}

// Text returns the search query text.
func (q *Query) Text() string { return q.text }

// Mode returns the search strategy.
func (q *Query) Mode() mode.Mode { return q.searchMode }

// Category returns the category filter, empty when unfiltered.
func (q *Query) Category() decision.Category { return q.category }

// Limit returns the maximum results to return.
func (q *Query) Limit() int { return q.limit }

// MinScore returns the caller-supplied threshold and whether one was set.
func (q *Query) MinScore() (float64, bool) { return q.minScore, q.minScoreSet }

// APIKey returns the per-request upstream key override, empty when absent.
func (q *Query) APIKey() string { return q.apiKey }
