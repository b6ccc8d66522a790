package decision

import (
	"fmt"
	"strings"
	"time"

	"github.com/pivotlog/pivotlog/internal/domain"
)

// MaxConfidence is the upper bound of the extraction confidence score.
const MaxConfidence = 100

// Decision is an extracted business decision with its optional embedding.
// When the embedding is present, searchableText is the exact text that was
// embedded; the two are always written together.
type Decision struct {
	id             string
	ownerID        string
	projectID      string
	documentID     string
	statement      string
	rationale      string
	summary        string
	category       Category
	confidence     int
	evidenceQuotes []string
	status         Status
	embedding      []float32
	searchableText string
	extractedAt    time.Time
}

// New validates and builds a decision. Defaults: category=Other, status=draft,
// extractedAt=now when zero.
func New(
	id, ownerID, projectID, documentID string,
	statement, rationale, summary string,
	category Category,
	confidence int,
	evidenceQuotes []string,
	status Status,
	extractedAt time.Time,
) (Decision, error) {
	if id == "" {
		return Decision{}, fmt.Errorf("%w: decision id is required", domain.ErrValidation)
	}
	if ownerID == "" {
		return Decision{}, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(statement) == "" {
		return Decision{}, fmt.Errorf("%w: decision statement is required", domain.ErrValidation)
	}
	if strings.TrimSpace(rationale) == "" {
		return Decision{}, fmt.Errorf("%w: rationale is required", domain.ErrValidation)
	}
	if category == "" {
		category = Other
	}
	if !category.IsValid() {
		return Decision{}, fmt.Errorf("%w: invalid category %q", domain.ErrValidation, category)
	}
	if confidence < 0 || confidence > MaxConfidence {
		return Decision{}, fmt.Errorf("%w: confidence must be between 0 and %d", domain.ErrValidation, MaxConfidence)
	}
	if status == "" {
		status = StatusDraft
	}
	if !status.IsValid() {
		return Decision{}, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, status)
	}
	if extractedAt.IsZero() {
		extractedAt = time.Now().UTC()
	}

	return Decision{
		id:             id,
		ownerID:        ownerID,
		projectID:      projectID,
		documentID:     documentID,
		statement:      statement,
		rationale:      rationale,
		summary:        summary,
		category:       category,
		confidence:     confidence,
		evidenceQuotes: evidenceQuotes,
		status:         status,
		extractedAt:    extractedAt,
	}, nil
}

// Reconstruct rebuilds a decision from storage without validation.
func Reconstruct(
	id, ownerID, projectID, documentID string,
	statement, rationale, summary string,
	category Category,
	confidence int,
	evidenceQuotes []string,
	status Status,
	embedding []float32,
	searchableText string,
	extractedAt time.Time,
) Decision {
	return Decision{
		id:             id,
		ownerID:        ownerID,
		projectID:      projectID,
		documentID:     documentID,
		statement:      statement,
		rationale:      rationale,
		summary:        summary,
		category:       category,
		confidence:     confidence,
		evidenceQuotes: evidenceQuotes,
		status:         status,
		embedding:      embedding,
		searchableText: searchableText,
		extractedAt:    extractedAt,
	}
}

// ID returns the decision identifier.
func (d Decision) ID() string { return d.id }

// OwnerID returns the owning user identifier.
func (d Decision) OwnerID() string { return d.ownerID }

// ProjectID returns the project reference (empty if unassigned).
func (d Decision) ProjectID() string { return d.projectID }

// DocumentID returns the source document reference.
func (d Decision) DocumentID() string { return d.documentID }

// Statement returns the decision statement.
func (d Decision) Statement() string { return d.statement }

// Rationale returns the decision rationale.
func (d Decision) Rationale() string { return d.rationale }

// Summary returns the executive summary (may be empty).
func (d Decision) Summary() string { return d.summary }

// Category returns the decision category.
func (d Decision) Category() Category { return d.category }

// Confidence returns the extraction confidence score (0-100).
func (d Decision) Confidence() int { return d.confidence }

// EvidenceQuotes returns supporting quotes from the source document.
func (d Decision) EvidenceQuotes() []string { return d.evidenceQuotes }

// Status returns the review lifecycle state.
func (d Decision) Status() Status { return d.status }

// Embedding returns the stored vector, nil if not yet computed.
func (d Decision) Embedding() []float32 { return d.embedding }

// HasEmbedding reports whether an embedding has been computed.
func (d Decision) HasEmbedding() bool { return len(d.embedding) > 0 }

// SearchableText returns the text that was embedded, empty if no embedding.
func (d Decision) SearchableText() string { return d.searchableText }

// ExtractedAt returns the extraction timestamp.
func (d Decision) ExtractedAt() time.Time { return d.extractedAt }

// SetEmbedding stores the vector together with the text it was computed from.
func (d *Decision) SetEmbedding(vec []float32, searchableText string) {
	d.embedding = vec
	d.searchableText = searchableText
}

// BuildSearchableText joins the fields used for embedding and keyword scoring.
func (d Decision) BuildSearchableText() string {
	return BuildSearchableText(d.statement, d.rationale, d.summary, string(d.category))
}

// BuildSearchableText concatenates decision + rationale + summary + category.
// The same text is used for embedding and for keyword scoring.
func BuildSearchableText(statement, rationale, summary, category string) string {
	return strings.Join([]string{statement, rationale, summary, category}, " ")
}
