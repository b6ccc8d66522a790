package decision

import (
	"encoding/json"
	"fmt"
	"time"

	domdec "github.com/pivotlog/pivotlog/internal/domain/decision"
)

// decisionDoc is the JSON shape stored in Redis. Field names follow the
// extraction pipeline's wire format so both sides read the same documents.
type decisionDoc struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"ownerId"`
	ProjectID      string    `json:"projectId,omitempty"`
	DocumentID     string    `json:"documentId,omitempty"`
	Decision       string    `json:"decision"`
	Rationale      string    `json:"rationale"`
	Summary        string    `json:"summary,omitempty"`
	Category       string    `json:"category"`
	Confidence     int       `json:"confidenceScore"`
	EvidenceQuotes []string  `json:"evidenceQuotes,omitempty"`
	Status         string    `json:"status"`
	Embedding      []float32 `json:"embedding,omitempty"`
	SearchableText string    `json:"searchableText,omitempty"`
	ExtractedAt    time.Time `json:"extractedAt"`
}

func marshalDecision(d *domdec.Decision) ([]byte, error) {
	doc := decisionDoc{
		ID:             d.ID(),
		OwnerID:        d.OwnerID(),
		ProjectID:      d.ProjectID(),
		DocumentID:     d.DocumentID(),
		Decision:       d.Statement(),
		Rationale:      d.Rationale(),
		Summary:        d.Summary(),
		Category:       string(d.Category()),
		Confidence:     d.Confidence(),
		EvidenceQuotes: d.EvidenceQuotes(),
		Status:         string(d.Status()),
		Embedding:      d.Embedding(),
		SearchableText: d.SearchableText(),
		ExtractedAt:    d.ExtractedAt().UTC(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal decision %s: %w", d.ID(), err)
	}
	return data, nil
}

func unmarshalDecision(data []byte) (domdec.Decision, error) {
	var doc decisionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domdec.Decision{}, fmt.Errorf("unmarshal decision: %w", err)
	}
	return domdec.Reconstruct(
		doc.ID, doc.OwnerID, doc.ProjectID, doc.DocumentID,
		doc.Decision, doc.Rationale, doc.Summary,
		domdec.Category(doc.Category), doc.Confidence,
		doc.EvidenceQuotes, domdec.Status(doc.Status),
		doc.Embedding, doc.SearchableText, doc.ExtractedAt,
	), nil
}
