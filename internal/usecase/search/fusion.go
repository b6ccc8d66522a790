package search

// Score fusion weights. Semantic similarity dominates; keyword evidence is
// capped so that a pure text match can never outrank a strong semantic hit,
// and an exact phrase occurrence earns a small fixed bonus.
const (
	semanticWeight = 0.7
	keywordWeight  = 0.3
	keywordCap     = 0.3
	phraseBonus    = 0.1
	maxScore       = 1.0
)

// fuseHybrid combines cosine similarity with keyword evidence into a single
// 0..1 ranking score. When no similarity is available (query or candidate
// lacks an embedding) only the keyword components contribute.
func fuseHybrid(similarity float64, hasSimilarity bool, km keywordMatch) float64 {
	var score float64
	if hasSimilarity {
		score = similarity * semanticWeight
	}

	kw := km.partial * keywordWeight
	if kw > keywordCap {
		kw = keywordCap
	}
	score += kw

	if km.exactPhrase {
		score += phraseBonus
	}

	if score > maxScore {
		score = maxScore
	}
	return score
}

// keywordScore normalizes keyword-only evidence to the same 0..1 scale as the
// other modes: the matched-token fraction plus the phrase bonus, clamped.
func keywordScore(km keywordMatch) float64 {
	score := km.partial
	if km.exactPhrase {
		score += phraseBonus
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}
