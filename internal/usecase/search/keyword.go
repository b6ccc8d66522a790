package search

import "strings"

// minTokenLength filters out short stop-word-like tokens ("a", "to", "of").
const minTokenLength = 3

// keywordMatch is the raw keyword evidence for one candidate before fusion.
type keywordMatch struct {
	// partial is the fraction of distinct query tokens found in the text, 0..1.
	partial float64
	// exactPhrase reports whether the full query appears as a substring.
	exactPhrase bool
	// matched lists the query tokens found, in query order.
	matched []string
}

// queryTokens lowercases and splits the query on whitespace, dropping tokens
// shorter than minTokenLength and duplicates. Order of first occurrence is kept.
func queryTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) < minTokenLength {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

// scoreKeywords matches pre-tokenized query terms against a candidate's
// searchable text. Matching is case-insensitive substring containment, so
// "deploy" matches "deployment". An empty token set yields a zero match.
func scoreKeywords(tokens []string, query, searchableText string) keywordMatch {
	if len(tokens) == 0 || searchableText == "" {
		return keywordMatch{}
	}

	text := strings.ToLower(searchableText)

	var matched []string
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			matched = append(matched, tok)
		}
	}

	return keywordMatch{
		partial:     float64(len(matched)) / float64(len(tokens)),
		exactPhrase: strings.Contains(text, strings.ToLower(query)),
		matched:     matched,
	}
}
