package decision

// CandidateFilter narrows corpus reads for search and backfill.
type CandidateFilter struct {
	Category         Category
	RequireEmbedding bool
}
