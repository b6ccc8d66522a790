package decision

// Category classifies a decision.
type Category string

// Category constants — the closed set produced by the extraction pipeline.
const (
	Cost        Category = "Cost"
	Technical   Category = "Technical"
	Operational Category = "Operational"
	Strategic   Category = "Strategic"
	Other       Category = "Other"
)

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	return c == Cost || c == Technical || c == Operational || c == Strategic || c == Other
}
